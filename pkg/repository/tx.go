package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"newshub/pkg/domain"
)

// TaxonomyKind names a taxonomy table
type TaxonomyKind string

// taxonomy tables
const (
	KindCategory TaxonomyKind = "categories"
	KindSource   TaxonomyKind = "sources"
	KindAuthor   TaxonomyKind = "authors"
)

// Batch exposes the write operations of one ingestion batch, all running
// inside a single transaction
type Batch struct {
	tx *sqlx.Tx
}

// InBatch runs fn inside one transaction wrapping batch write operations
func (r *Repositories) InBatch(ctx context.Context, fn func(b *Batch) error) error {
	return r.InTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Batch{tx: tx})
	})
}

// ArticleExists checks whether an article with the external id is already
// stored; this is the sole deduplication mechanism of ingestion
func (b *Batch) ArticleExists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := b.tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE external_id = ?)", externalID)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// GetOrCreateTaxonomy resolves a taxonomy entity by the deterministic slug
// of its name, creating it when absent. Lookup by slug makes repeated
// ingestion find the same entity instead of creating duplicates.
func (b *Batch) GetOrCreateTaxonomy(ctx context.Context, kind TaxonomyKind, name string) (int64, error) {
	slug := domain.Slugify(name)

	var id int64
	err := b.tx.GetContext(ctx, &id,
		fmt.Sprintf("SELECT id FROM %s WHERE slug = ?", kind), slug)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup %s by slug: %w", kind, err)
	}

	result, err := b.tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (name, slug) VALUES (?, ?)", kind), name, slug)
	if err != nil {
		if isUniqueViolation(err) {
			// lost a race to another writer, the row exists now
			if gerr := b.tx.GetContext(ctx, &id,
				fmt.Sprintf("SELECT id FROM %s WHERE slug = ?", kind), slug); gerr == nil {
				return id, nil
			}
		}
		return 0, fmt.Errorf("create %s %q: %w", kind, name, err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get insert id: %w", err)
	}
	return id, nil
}

// CreateArticle inserts a new article row referencing resolved taxonomy ids
func (b *Batch) CreateArticle(ctx context.Context, draft domain.ArticleDraft, categoryID, sourceID, authorID int64) (int64, error) {
	query := `
		INSERT INTO articles (
			external_id, title, description, content, url, image_url,
			published_at, category_id, source_id, author_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := b.tx.ExecContext(ctx, query,
		draft.ExternalID, draft.Title, draft.Description, draft.Content,
		draft.URL, draft.ImageURL, draft.Published, categoryID, sourceID, authorID)
	if err != nil {
		return 0, fmt.Errorf("create article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get insert id: %w", err)
	}
	return id, nil
}
