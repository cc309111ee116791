package news

import (
	"context"
	"fmt"

	"newshub/pkg/cache"
	"newshub/pkg/domain"
	"newshub/pkg/repository"
)

// taxonomyLimit caps every taxonomy listing
const taxonomyLimit = 10

// TaxonomyService serves category, source and author listings with
// article counts, cached per kind and search query
type TaxonomyService struct {
	repos *repository.Repositories
	cache *cache.Gateway
}

// NewTaxonomyService creates a taxonomy read service
func NewTaxonomyService(repos *repository.Repositories, gw *cache.Gateway) *TaxonomyService {
	return &TaxonomyService{repos: repos, cache: gw}
}

// FilterOptions bundles all taxonomy listings for building filter UIs
// with a single request
type FilterOptions struct {
	Categories []domain.TaxonomyEntry `json:"categories"`
	Sources    []domain.TaxonomyEntry `json:"sources"`
	Authors    []domain.TaxonomyEntry `json:"authors"`
}

// Categories lists categories by name, optionally narrowed by a search query
func (s *TaxonomyService) Categories(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return s.list(ctx, repository.KindCategory, query)
}

// Sources lists sources by name, optionally narrowed by a search query
func (s *TaxonomyService) Sources(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return s.list(ctx, repository.KindSource, query)
}

// Authors lists authors by name, optionally narrowed by a search query
func (s *TaxonomyService) Authors(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return s.list(ctx, repository.KindAuthor, query)
}

// Options returns every taxonomy listing at once, under its own cache key
func (s *TaxonomyService) Options(ctx context.Context) (FilterOptions, error) {
	return cache.Remember(ctx, s.cache, "filter_options", func(ctx context.Context) (FilterOptions, error) {
		categories, err := s.repos.Taxonomy.List(ctx, repository.KindCategory, "", taxonomyLimit)
		if err != nil {
			return FilterOptions{}, err
		}
		sources, err := s.repos.Taxonomy.List(ctx, repository.KindSource, "", taxonomyLimit)
		if err != nil {
			return FilterOptions{}, err
		}
		authors, err := s.repos.Taxonomy.List(ctx, repository.KindAuthor, "", taxonomyLimit)
		if err != nil {
			return FilterOptions{}, err
		}
		return FilterOptions{Categories: categories, Sources: sources, Authors: authors}, nil
	})
}

func (s *TaxonomyService) list(ctx context.Context, kind repository.TaxonomyKind, query string) ([]domain.TaxonomyEntry, error) {
	key := string(kind)
	if query != "" {
		key = fmt.Sprintf("%s:search:%s", kind, query)
	}
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) ([]domain.TaxonomyEntry, error) {
		return s.repos.Taxonomy.List(ctx, kind, query, taxonomyLimit)
	})
}
