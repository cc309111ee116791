package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"newshub/pkg/domain"
)

// TaxonomyRepository handles read-side taxonomy operations
type TaxonomyRepository struct {
	db *sqlx.DB
}

// taxonomySQL represents a taxonomy row with its article count
type taxonomySQL struct {
	Name  string `db:"name"`
	Slug  string `db:"slug"`
	Count int    `db:"article_count"`
}

// fkColumn maps a taxonomy table to the articles column referencing it
var fkColumn = map[TaxonomyKind]string{
	KindCategory: "category_id",
	KindSource:   "source_id",
	KindAuthor:   "author_id",
}

// NewTaxonomyRepository creates a new taxonomy repository
func NewTaxonomyRepository(database *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: database}
}

// List retrieves taxonomy entries with their article counts, name-ordered,
// optionally narrowed by a name substring, capped at limit
func (r *TaxonomyRepository) List(ctx context.Context, kind TaxonomyKind, query string, limit int) ([]domain.TaxonomyEntry, error) {
	fk, ok := fkColumn[kind]
	if !ok {
		return nil, fmt.Errorf("unknown taxonomy kind %q", kind)
	}

	sqlQuery := fmt.Sprintf(`
		SELECT t.name, t.slug,
		       (SELECT COUNT(*) FROM articles a WHERE a.%s = t.id) AS article_count
		FROM %s t
	`, fk, kind)

	var args []interface{}
	if query != "" {
		sqlQuery += " WHERE t.name LIKE ?"
		args = append(args, "%"+query+"%")
	}
	sqlQuery += " ORDER BY t.name LIMIT ?"
	args = append(args, limit)

	var rows []taxonomySQL
	if err := r.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	entries := make([]domain.TaxonomyEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.TaxonomyEntry{Name: row.Name, Slug: row.Slug, Count: row.Count}
	}
	return entries, nil
}
