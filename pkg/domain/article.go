package domain

import "time"

// ArticleDraft is a provider-normalized article before deduplication and persistence.
// Taxonomy fields are free-text labels, not yet resolved to entities.
type ArticleDraft struct {
	ExternalID   string // provider-namespaced, e.g. "guardian_<hash>"
	Title        string
	Description  string
	Content      string
	URL          string
	ImageURL     string
	Published    *time.Time // nil when the provider date is absent or unparseable
	SourceName   string
	CategoryName string
	AuthorName   string
}

// Article represents a persisted news article with resolved taxonomy
type Article struct {
	ID          int64      `json:"id"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"image_url"`
	Published   *time.Time `json:"published_at"`
	Category    Taxonomy   `json:"category"`
	Source      Taxonomy   `json:"source"`
	Author      Taxonomy   `json:"author"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Taxonomy is a category, source or author entity resolved by slug
type Taxonomy struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TaxonomyEntry is a taxonomy row with its article count, as served by listings
type TaxonomyEntry struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Page is one page of a filtered article listing
type Page struct {
	Items      []Article `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}
