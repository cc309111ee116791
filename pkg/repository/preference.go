package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"newshub/pkg/domain"
)

// PreferenceRepository handles user preference storage, one row per user
type PreferenceRepository struct {
	db *sqlx.DB
}

// preferenceSQL represents a user preference row for SQL operations
type preferenceSQL struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Preferences preferencesJSON `db:"preferences"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// preferencesJSON stores structured preferences as a JSON column
type preferencesJSON domain.Preferences

// Value implements driver.Valuer for database storage
func (p preferencesJSON) Value() (driver.Value, error) {
	data, err := json.Marshal(domain.Preferences(p))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (p *preferencesJSON) Scan(value interface{}) error {
	if value == nil {
		*p = preferencesJSON{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported preferences column type %T", value)
	}

	return json.Unmarshal(data, (*domain.Preferences)(p))
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(database *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: database}
}

// Get retrieves the preference record for a user, ErrNotFound when none is stored
func (r *PreferenceRepository) Get(ctx context.Context, userID int64) (*domain.UserPreference, error) {
	var row preferenceSQL
	err := r.db.GetContext(ctx, &row, "SELECT * FROM user_preferences WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user preferences: %w", err)
	}

	return &domain.UserPreference{
		ID:          row.ID,
		UserID:      row.UserID,
		Preferences: domain.Preferences(row.Preferences),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// Upsert creates the user's preference record on first save and replaces it
// afterwards, never duplicating per user id
func (r *PreferenceRepository) Upsert(ctx context.Context, userID int64, prefs domain.Preferences) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		query := `
			INSERT INTO user_preferences (user_id, preferences)
			VALUES (?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				preferences = excluded.preferences,
				updated_at = datetime('now')
		`
		_, err := r.db.ExecContext(ctx, query, userID, preferencesJSON(prefs))
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("upsert user preferences: %w", err)}
		}
		return nil
	})
}
