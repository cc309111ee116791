package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"newshub/pkg/domain"
	"newshub/pkg/news"
)

// Server represents HTTP server instance
type Server struct {
	config      ConfigProvider
	articles    Articles
	taxonomies  Taxonomies
	preferences Preferences
	ingester    Ingester
	cache       CacheFlusher
	version     string
	debug       bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Articles interface for article read operations
type Articles interface {
	List(ctx context.Context, filter domain.ArticleFilter) (domain.Page, error)
	GetWithRelated(ctx context.Context, id int64) (news.ArticleWithRelated, error)
	PersonalizedFeed(ctx context.Context, userID int64, filter domain.ArticleFilter) (domain.Page, error)
}

// Taxonomies interface for taxonomy listings
type Taxonomies interface {
	Categories(ctx context.Context, query string) ([]domain.TaxonomyEntry, error)
	Sources(ctx context.Context, query string) ([]domain.TaxonomyEntry, error)
	Authors(ctx context.Context, query string) ([]domain.TaxonomyEntry, error)
	Options(ctx context.Context) (news.FilterOptions, error)
}

// Preferences interface for user preference operations
type Preferences interface {
	Get(ctx context.Context, userID int64) (domain.Preferences, error)
	Update(ctx context.Context, userID int64, prefs domain.Preferences) error
}

// Ingester interface for on-demand ingestion. TriggerNow reports false when
// a scheduled cycle is already in flight.
type Ingester interface {
	TriggerNow(ctx context.Context, dryRun bool) (domain.IngestResult, bool)
}

// CacheFlusher interface for administrative cache clearing
type CacheFlusher interface {
	Flush(ctx context.Context) error
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, articles Articles, taxonomies Taxonomies, preferences Preferences,
	ingester Ingester, cache CacheFlusher, version string, debug bool) *Server {
	s := &Server{
		config:      cfg,
		articles:    articles,
		taxonomies:  taxonomies,
		preferences: preferences,
		ingester:    ingester,
		cache:       cache,
		version:     version,
		debug:       debug,
		router:      routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newshub", "newshub", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)

		r.HandleFunc("GET /news", s.listNewsHandler)
		r.HandleFunc("GET /news/{id}", s.getNewsHandler)
		r.HandleFunc("GET /feed", s.personalizedFeedHandler)

		r.HandleFunc("GET /categories", s.categoriesHandler)
		r.HandleFunc("GET /sources", s.sourcesHandler)
		r.HandleFunc("GET /authors", s.authorsHandler)
		r.HandleFunc("GET /filter-options", s.filterOptionsHandler)

		r.HandleFunc("GET /preferences", s.getPreferencesHandler)
		r.HandleFunc("PUT /preferences", s.updatePreferencesHandler)

		r.Mount("/admin").Route(func(a *routegroup.Bundle) {
			a.HandleFunc("POST /fetch", s.fetchHandler)
			a.HandleFunc("DELETE /cache", s.clearCacheHandler)
		})
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
