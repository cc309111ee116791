package news

import (
	"context"
	"errors"
	"fmt"

	"newshub/pkg/domain"
	"newshub/pkg/repository"
)

// PreferenceService manages per-user feed preferences. Reads are cheap
// single-row lookups so they bypass the cache entirely.
type PreferenceService struct {
	repos *repository.Repositories
}

// NewPreferenceService creates a preference service
func NewPreferenceService(repos *repository.Repositories) *PreferenceService {
	return &PreferenceService{repos: repos}
}

// Get returns the user's stored preferences, or defaults when none exist
func (s *PreferenceService) Get(ctx context.Context, userID int64) (domain.Preferences, error) {
	stored, err := s.repos.Preference.Get(ctx, userID)
	switch {
	case err == nil:
		return stored.Preferences, nil
	case errors.Is(err, repository.ErrNotFound):
		return domain.DefaultPreferences(), nil
	default:
		return domain.Preferences{}, fmt.Errorf("get preferences for user %d: %w", userID, err)
	}
}

// Update stores the user's preferences, replacing any previous set
func (s *PreferenceService) Update(ctx context.Context, userID int64, prefs domain.Preferences) error {
	if err := s.repos.Preference.Upsert(ctx, userID, prefs); err != nil {
		return fmt.Errorf("update preferences for user %d: %w", userID, err)
	}
	return nil
}
