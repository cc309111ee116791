package provider

import (
	"context"
	"crypto/md5" //nolint:gosec // external id fingerprint, not security
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"newshub/pkg/domain"
)

// Provider fetches raw articles from one external news API and normalizes
// them into drafts. Implementations never leak provider-specific error types.
type Provider interface {
	FetchNews(ctx context.Context) ([]domain.ArticleDraft, error)
	Name() string
}

// ConfigurationError indicates a provider can't be constructed because its
// credential is missing. This is a startup-time failure, not a per-call one.
type ConfigurationError struct {
	Service    string
	MissingKey string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured, missing %s", e.Service, e.MissingKey)
}

// ProviderError wraps any fetch failure (non-2xx, transport, decode) so the
// orchestrator sees one uniform error type. StatusCode is 0 for non-HTTP failures.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CategoryGeneral is the fallback category label when a provider has none
const CategoryGeneral = "General"

// stripPolicy removes all HTML tags, matching the original providers'
// strip-then-trim normalization
var stripPolicy = bluemonday.StrictPolicy()

// cleanText strips HTML tags, unescapes entities and trims whitespace.
// Missing optional fields normalize to "" rather than null.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// externalID builds a deterministic provider-namespaced id from the
// provider's natural key, so repeated fetches of the same article dedupe
func externalID(prefix, naturalKey string) string {
	return fmt.Sprintf("%s_%x", prefix, md5.Sum([]byte(naturalKey))) //nolint:gosec // fingerprint only
}

// dateLayouts covers the formats seen across the supported APIs
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate parses a provider date string, returning nil for absent or
// unparseable values instead of erroring
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}

// newHTTPClient builds the shared client configuration for provider adapters
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
