package ingest

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"

	"newshub/pkg/cache"
	"newshub/pkg/domain"
	"newshub/pkg/repository"
)

// Persister writes normalized article drafts into storage, one transaction
// per provider batch, and invalidates read caches when anything new landed.
type Persister struct {
	repos *repository.Repositories
	cache *cache.Gateway
}

// NewPersister creates a persister over the given repositories and cache
func NewPersister(repos *repository.Repositories, gw *cache.Gateway) *Persister {
	return &Persister{repos: repos, cache: gw}
}

// articleBatch is the subset of repository.Batch the persister writes through
type articleBatch interface {
	ArticleExists(ctx context.Context, externalID string) (bool, error)
	GetOrCreateTaxonomy(ctx context.Context, kind repository.TaxonomyKind, name string) (int64, error)
	CreateArticle(ctx context.Context, draft domain.ArticleDraft, categoryID, sourceID, authorID int64) (int64, error)
}

// Save stores one provider's batch of drafts inside a single transaction.
// Duplicates (by external id) are skipped silently; a draft that fails to
// persist is logged and skipped without aborting the rest of the batch.
// Returns the number of newly inserted articles.
func (p *Persister) Save(ctx context.Context, drafts []domain.ArticleDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	saved := 0
	err := p.repos.InBatch(ctx, func(b *repository.Batch) error {
		saved = p.saveBatch(ctx, b, drafts)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save batch: %w", err)
	}

	if saved > 0 {
		p.invalidate(ctx)
	}
	return saved, nil
}

// saveBatch runs the per-draft loop. A draft that fails to persist is logged
// and skipped so one broken record never sinks the rest of its batch.
func (p *Persister) saveBatch(ctx context.Context, b articleBatch, drafts []domain.ArticleDraft) int {
	saved := 0
	for _, draft := range drafts {
		ok, err := p.saveOne(ctx, b, draft)
		if err != nil {
			lgr.Printf("[WARN] failed to save article %s: %v", draft.ExternalID, err)
			continue
		}
		if ok {
			saved++
		}
	}
	return saved
}

// saveOne persists a single draft, returning false when it was a duplicate
func (p *Persister) saveOne(ctx context.Context, b articleBatch, draft domain.ArticleDraft) (bool, error) {
	exists, err := b.ArticleExists(ctx, draft.ExternalID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	categoryID, err := b.GetOrCreateTaxonomy(ctx, repository.KindCategory, draft.CategoryName)
	if err != nil {
		return false, err
	}
	sourceID, err := b.GetOrCreateTaxonomy(ctx, repository.KindSource, draft.SourceName)
	if err != nil {
		return false, err
	}
	authorID, err := b.GetOrCreateTaxonomy(ctx, repository.KindAuthor, draft.AuthorName)
	if err != nil {
		return false, err
	}

	if _, err := b.CreateArticle(ctx, draft, categoryID, sourceID, authorID); err != nil {
		return false, err
	}
	return true, nil
}

// invalidate drops every cache entry that could now be stale. The single
// filter_options key goes directly; taxonomy lists, article lists and
// personalized feeds carry search or filter suffixes so they go by prefix.
func (p *Persister) invalidate(ctx context.Context) {
	if err := p.cache.Forget(ctx, "filter_options"); err != nil {
		lgr.Printf("[WARN] failed to invalidate cache key filter_options: %v", err)
	}
	for _, prefix := range []string{"categories", "sources", "authors", "articles", "personalized_feed"} {
		if err := p.cache.ForgetByPrefix(ctx, prefix); err != nil {
			lgr.Printf("[WARN] failed to invalidate cache prefix %s: %v", prefix, err)
		}
	}
}
