package news

import (
	"context"
	"crypto/md5" //nolint:gosec // cache key fingerprint, not security
	"fmt"

	"github.com/thoas/go-funk"

	"newshub/pkg/cache"
	"newshub/pkg/domain"
	"newshub/pkg/repository"
)

// relatedLimit caps the related articles attached to a single article view
const relatedLimit = 3

// ArticleService serves article reads through the cache gateway.
// Every lookup is read-through: a miss hits the repository and the result
// is stored under the key's policy TTL.
type ArticleService struct {
	repos *repository.Repositories
	cache *cache.Gateway
	prefs *PreferenceService
}

// NewArticleService creates an article read service
func NewArticleService(repos *repository.Repositories, gw *cache.Gateway, prefs *PreferenceService) *ArticleService {
	return &ArticleService{repos: repos, cache: gw, prefs: prefs}
}

// ArticleWithRelated is a single article with its related articles attached
type ArticleWithRelated struct {
	Article domain.Article   `json:"article"`
	Related []domain.Article `json:"related"`
}

// List returns a filtered, sorted, paginated page of articles.
// Equal filters share one cache entry keyed by the filter fingerprint.
func (s *ArticleService) List(ctx context.Context, filter domain.ArticleFilter) (domain.Page, error) {
	filter.Normalize()
	key := "articles:list:" + filter.CacheKey()
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (domain.Page, error) {
		return s.repos.Article.List(ctx, filter)
	})
}

// Get returns a single article by id, repository.ErrNotFound when absent
func (s *ArticleService) Get(ctx context.Context, id int64) (domain.Article, error) {
	key := fmt.Sprintf("articles:single:%d", id)
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (domain.Article, error) {
		article, err := s.repos.Article.GetByID(ctx, id)
		if err != nil {
			return domain.Article{}, err
		}
		return *article, nil
	})
}

// GetWithRelated returns an article together with up to three related
// articles, newest first
func (s *ArticleService) GetWithRelated(ctx context.Context, id int64) (ArticleWithRelated, error) {
	key := fmt.Sprintf("articles:with_related:%d", id)
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (ArticleWithRelated, error) {
		article, err := s.repos.Article.GetByID(ctx, id)
		if err != nil {
			return ArticleWithRelated{}, err
		}
		related, err := s.repos.Article.GetRelated(ctx, id, relatedLimit)
		if err != nil {
			return ArticleWithRelated{}, err
		}
		return ArticleWithRelated{Article: *article, Related: related}, nil
	})
}

// PersonalizedFeed returns a page of articles shaped by the user's stored
// preferences: when the user has any preferred categories, sources or
// authors those replace the corresponding filter lists entirely. A user
// without stored preferences gets the plain filtered feed.
func (s *ArticleService) PersonalizedFeed(ctx context.Context, userID int64, filter domain.ArticleFilter) (domain.Page, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return domain.Page{}, err
	}
	if prefs.HasFilters() {
		filter.Categories = funk.UniqString(prefs.Categories)
		filter.Sources = funk.UniqString(prefs.Sources)
		filter.Authors = funk.UniqString(prefs.Authors)
	}
	filter.Normalize()

	key := fmt.Sprintf("personalized_feed:%x",
		md5.Sum(fmt.Appendf(nil, "%d|%s", userID, filter.CacheKey()))) //nolint:gosec // fingerprint only
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (domain.Page, error) {
		return s.repos.Article.List(ctx, filter)
	})
}
