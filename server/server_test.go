package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/pkg/domain"
	"newshub/pkg/news"
	"newshub/pkg/repository"
)

type mockConfig struct{}

func (m *mockConfig) GetServerConfig() (string, time.Duration) { return ":0", time.Second }

type mockArticles struct {
	listFunc func(ctx context.Context, filter domain.ArticleFilter) (domain.Page, error)
	getFunc  func(ctx context.Context, id int64) (news.ArticleWithRelated, error)
	feedFunc func(ctx context.Context, userID int64, filter domain.ArticleFilter) (domain.Page, error)
}

func (m *mockArticles) List(ctx context.Context, filter domain.ArticleFilter) (domain.Page, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockArticles) GetWithRelated(ctx context.Context, id int64) (news.ArticleWithRelated, error) {
	return m.getFunc(ctx, id)
}

func (m *mockArticles) PersonalizedFeed(ctx context.Context, userID int64, filter domain.ArticleFilter) (domain.Page, error) {
	return m.feedFunc(ctx, userID, filter)
}

type mockTaxonomies struct {
	listFunc    func(ctx context.Context, query string) ([]domain.TaxonomyEntry, error)
	optionsFunc func(ctx context.Context) (news.FilterOptions, error)
}

func (m *mockTaxonomies) Categories(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return m.listFunc(ctx, query)
}

func (m *mockTaxonomies) Sources(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return m.listFunc(ctx, query)
}

func (m *mockTaxonomies) Authors(ctx context.Context, query string) ([]domain.TaxonomyEntry, error) {
	return m.listFunc(ctx, query)
}

func (m *mockTaxonomies) Options(ctx context.Context) (news.FilterOptions, error) {
	return m.optionsFunc(ctx)
}

type mockPreferences struct {
	getFunc    func(ctx context.Context, userID int64) (domain.Preferences, error)
	updateFunc func(ctx context.Context, userID int64, prefs domain.Preferences) error
}

func (m *mockPreferences) Get(ctx context.Context, userID int64) (domain.Preferences, error) {
	return m.getFunc(ctx, userID)
}

func (m *mockPreferences) Update(ctx context.Context, userID int64, prefs domain.Preferences) error {
	return m.updateFunc(ctx, userID, prefs)
}

type mockIngester struct {
	triggerFunc func(ctx context.Context, dryRun bool) (domain.IngestResult, bool)
}

func (m *mockIngester) TriggerNow(ctx context.Context, dryRun bool) (domain.IngestResult, bool) {
	return m.triggerFunc(ctx, dryRun)
}

type mockCache struct {
	flushed bool
}

func (m *mockCache) Flush(_ context.Context) error {
	m.flushed = true
	return nil
}

type testDeps struct {
	articles    *mockArticles
	taxonomies  *mockTaxonomies
	preferences *mockPreferences
	ingester    *mockIngester
	cache       *mockCache
}

func newTestServer(t *testing.T, deps testDeps) *httptest.Server {
	t.Helper()

	s := New(&mockConfig{}, deps.articles, deps.taxonomies, deps.preferences,
		deps.ingester, deps.cache, "test", false)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Status(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])
}

func TestServer_ListNews(t *testing.T) {
	var captured domain.ArticleFilter
	articles := &mockArticles{
		listFunc: func(_ context.Context, filter domain.ArticleFilter) (domain.Page, error) {
			captured = filter
			return domain.Page{Items: []domain.Article{{ID: 1, Title: "Article"}}, Total: 1, Page: filter.Page, PerPage: filter.PerPage, TotalPages: 1}, nil
		},
	}
	ts := newTestServer(t, testDeps{articles: articles})

	resp, err := http.Get(ts.URL + "/api/v1/news?q=go&categories=tech,science&categories=politics&sources=bbc&date_from=2025-01-01&sort=-title&page=2&per_page=500")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "go", captured.Query)
	assert.Equal(t, []string{"tech", "science", "politics"}, captured.Categories)
	assert.Equal(t, []string{"bbc"}, captured.Sources)
	require.NotNil(t, captured.DateFrom)
	assert.Equal(t, "2025-01-01", captured.DateFrom.Format("2006-01-02"))
	assert.Equal(t, domain.SortTitle, captured.SortField)
	assert.True(t, captured.SortDesc)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 100, captured.PerPage, "per_page over the limit is clamped")

	var page domain.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 1, page.Total)
}

func TestServer_ListNewsBadDate(t *testing.T) {
	ts := newTestServer(t, testDeps{articles: &mockArticles{}})

	resp, err := http.Get(ts.URL + "/api/v1/news?date_from=January")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_GetNews(t *testing.T) {
	articles := &mockArticles{
		getFunc: func(_ context.Context, id int64) (news.ArticleWithRelated, error) {
			if id != 42 {
				return news.ArticleWithRelated{}, repository.ErrNotFound
			}
			return news.ArticleWithRelated{
				Article: domain.Article{ID: 42, Title: "Found"},
				Related: []domain.Article{{ID: 43}},
			}, nil
		},
	}
	ts := newTestServer(t, testDeps{articles: articles})

	resp, err := http.Get(ts.URL + "/api/v1/news/42")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result news.ArticleWithRelated
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Found", result.Article.Title)
	assert.Len(t, result.Related, 1)

	resp, err = http.Get(ts.URL + "/api/v1/news/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/news/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_PersonalizedFeed(t *testing.T) {
	articles := &mockArticles{
		feedFunc: func(_ context.Context, userID int64, _ domain.ArticleFilter) (domain.Page, error) {
			require.Equal(t, int64(7), userID)
			return domain.Page{Total: 2}, nil
		},
	}
	ts := newTestServer(t, testDeps{articles: articles})

	resp, err := http.Get(ts.URL + "/api/v1/feed?user_id=7")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// user_id is mandatory
	resp, err = http.Get(ts.URL + "/api/v1/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_TaxonomyListings(t *testing.T) {
	taxonomies := &mockTaxonomies{
		listFunc: func(_ context.Context, query string) ([]domain.TaxonomyEntry, error) {
			if query == "te" {
				return []domain.TaxonomyEntry{{Name: "Tech", Slug: "tech", Count: 3}}, nil
			}
			return []domain.TaxonomyEntry{{Name: "Tech", Slug: "tech", Count: 3}, {Name: "World", Slug: "world", Count: 1}}, nil
		},
		optionsFunc: func(_ context.Context) (news.FilterOptions, error) {
			return news.FilterOptions{Categories: []domain.TaxonomyEntry{{Name: "Tech"}}}, nil
		},
	}
	ts := newTestServer(t, testDeps{taxonomies: taxonomies})

	for _, path := range []string{"/api/v1/categories", "/api/v1/sources", "/api/v1/authors"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		var entries []domain.TaxonomyEntry
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
		resp.Body.Close()
		assert.Len(t, entries, 2, path)
	}

	resp, err := http.Get(ts.URL + "/api/v1/categories?q=te")
	require.NoError(t, err)
	var entries []domain.TaxonomyEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	resp.Body.Close()
	require.Len(t, entries, 1)
	assert.Equal(t, "Tech", entries[0].Name)

	resp, err = http.Get(ts.URL + "/api/v1/filter-options")
	require.NoError(t, err)
	var options news.FilterOptions
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&options))
	resp.Body.Close()
	assert.Len(t, options.Categories, 1)
}

func TestServer_Preferences(t *testing.T) {
	stored := domain.DefaultPreferences()
	preferences := &mockPreferences{
		getFunc: func(_ context.Context, userID int64) (domain.Preferences, error) {
			require.Equal(t, int64(5), userID)
			return stored, nil
		},
		updateFunc: func(_ context.Context, userID int64, prefs domain.Preferences) error {
			require.Equal(t, int64(5), userID)
			stored = prefs
			return nil
		},
	}
	ts := newTestServer(t, testDeps{preferences: preferences})

	resp, err := http.Get(ts.URL + "/api/v1/preferences?user_id=5")
	require.NoError(t, err)
	var prefs domain.Preferences
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prefs))
	resp.Body.Close()
	assert.Equal(t, "en", prefs.Language)

	body, err := json.Marshal(domain.Preferences{Categories: []string{"tech"}, Language: "en", Theme: "dark"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/preferences?user_id=5", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"tech"}, stored.Categories)
	assert.Equal(t, "dark", stored.Theme)

	// invalid payload
	req, err = http.NewRequest(http.MethodPut, ts.URL+"/api/v1/preferences?user_id=5", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_AdminFetch(t *testing.T) {
	var gotDryRun bool
	ingester := &mockIngester{
		triggerFunc: func(_ context.Context, dryRun bool) (domain.IngestResult, bool) {
			gotDryRun = dryRun
			return domain.IngestResult{
				TotalArticles: 5,
				Sources:       []domain.SourceResult{{Source: "The Guardian", Fetched: 5, Saved: 3}},
			}, true
		},
	}
	ts := newTestServer(t, testDeps{ingester: ingester})

	resp, err := http.Post(ts.URL+"/api/v1/admin/fetch?dry_run=true", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, gotDryRun)

	var result domain.IngestResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Equal(t, 5, result.TotalArticles)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, 3, result.Sources[0].Saved)

	resp, err = http.Post(ts.URL+"/api/v1/admin/fetch", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, gotDryRun)
}

func TestServer_AdminFetchBusy(t *testing.T) {
	ingester := &mockIngester{
		triggerFunc: func(_ context.Context, _ bool) (domain.IngestResult, bool) {
			return domain.IngestResult{}, false
		},
	}
	ts := newTestServer(t, testDeps{ingester: ingester})

	resp, err := http.Post(ts.URL+"/api/v1/admin/fetch", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_AdminClearCache(t *testing.T) {
	cache := &mockCache{}
	ts := newTestServer(t, testDeps{cache: cache})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/admin/cache", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cache.flushed)
}

func TestServer_Ping(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	resp, err := http.Get(fmt.Sprintf("%s/ping", ts.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
