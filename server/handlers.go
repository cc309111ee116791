package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"newshub/pkg/domain"
	"newshub/pkg/repository"
)

// listNewsHandler serves a filtered, sorted, paginated article listing
func (s *Server) listNewsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := s.articles.List(r.Context(), filter)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, page)
}

// getNewsHandler serves a single article with its related articles
func (s *Server) getNewsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("invalid article id"), http.StatusBadRequest)
		return
	}

	result, err := s.articles.GetWithRelated(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		RenderError(w, r, fmt.Errorf("article %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, result)
}

// personalizedFeedHandler serves the user's preference-shaped feed
func (s *Server) personalizedFeedHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := s.articles.PersonalizedFeed(r.Context(), userID, filter)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, page)
}

func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	s.taxonomyListing(w, r, s.taxonomies.Categories)
}

func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	s.taxonomyListing(w, r, s.taxonomies.Sources)
}

func (s *Server) authorsHandler(w http.ResponseWriter, r *http.Request) {
	s.taxonomyListing(w, r, s.taxonomies.Authors)
}

func (s *Server) taxonomyListing(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, query string) ([]domain.TaxonomyEntry, error)) {
	entries, err := list(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, entries)
}

// filterOptionsHandler serves all taxonomy listings in one response
func (s *Server) filterOptionsHandler(w http.ResponseWriter, r *http.Request) {
	options, err := s.taxonomies.Options(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, options)
}

// getPreferencesHandler serves the user's stored preferences, defaults when none
func (s *Server) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	prefs, err := s.preferences.Get(r.Context(), userID)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, prefs)
}

// updatePreferencesHandler replaces the user's stored preferences
func (s *Server) updatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}

	var prefs domain.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		RenderError(w, r, fmt.Errorf("invalid preferences payload"), http.StatusBadRequest)
		return
	}

	if err := s.preferences.Update(r.Context(), userID, prefs); err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, prefs)
}

// fetchHandler triggers an ingestion cycle, optionally a dry run
func (s *Server) fetchHandler(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	result, ok := s.ingester.TriggerNow(r.Context(), dryRun)
	if !ok {
		RenderError(w, r, fmt.Errorf("ingestion cycle already in progress"), http.StatusConflict)
		return
	}
	RenderJSON(w, r, http.StatusOK, result)
}

// clearCacheHandler drops every cache entry
func (s *Server) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Flush(r.Context()); err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"status": "cache cleared"})
}

// parseUserID reads the mandatory user_id query parameter
func parseUserID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, fmt.Errorf("user_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid user_id %q", raw)
	}
	return id, nil
}

// parseFilter builds an article filter from request query parameters.
// Taxonomy parameters accept repeated values and comma-separated lists.
func parseFilter(r *http.Request) (domain.ArticleFilter, error) {
	q := r.URL.Query()
	filter := domain.NewArticleFilter()

	filter.Query = strings.TrimSpace(q.Get("q"))
	filter.Categories = parseList(q["categories"])
	filter.Sources = parseList(q["sources"])
	filter.Authors = parseList(q["authors"])

	if raw := q.Get("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from %q, expected YYYY-MM-DD", raw)
		}
		filter.DateFrom = &from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to %q, expected YYYY-MM-DD", raw)
		}
		filter.DateTo = &to
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid page %q", raw)
		}
		filter.Page = page
	}
	if raw := q.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid per_page %q", raw)
		}
		filter.PerPage = perPage
	}
	if raw := q.Get("sort"); raw != "" {
		filter.ApplySort(raw)
	}

	filter.Normalize()
	return filter, nil
}

// parseList flattens repeated and comma-separated parameter values
func parseList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
