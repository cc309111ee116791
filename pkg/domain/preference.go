package domain

import "time"

// Preferences holds a user's stored feed preferences
type Preferences struct {
	Categories []string `json:"categories"`
	Sources    []string `json:"sources"`
	Authors    []string `json:"authors"`
	Language   string   `json:"language"`
	Theme      string   `json:"theme"`
}

// DefaultPreferences returns the preferences served for users without a stored record
func DefaultPreferences() Preferences {
	return Preferences{
		Categories: []string{},
		Sources:    []string{},
		Authors:    []string{},
		Language:   "en",
		Theme:      "light",
	}
}

// HasFilters reports whether any taxonomy preference is set,
// i.e. whether personalization changes the feed at all
func (p Preferences) HasFilters() bool {
	return len(p.Categories) > 0 || len(p.Sources) > 0 || len(p.Authors) > 0
}

// UserPreference is the stored preference record, one per user
type UserPreference struct {
	ID          int64
	UserID      int64
	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
