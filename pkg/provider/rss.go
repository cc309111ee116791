package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newshub/pkg/domain"
)

// RSS fetches and normalizes articles from a configured list of RSS/Atom feeds
type RSS struct {
	client      *http.Client
	urls        []string
	userAgent   string
	maxArticles int
}

// NewRSS creates an RSS adapter, failing fast when no feed URLs are configured
func NewRSS(urls []string, userAgent string, timeout time.Duration, maxArticles int) (*RSS, error) {
	if len(urls) == 0 {
		return nil, &ConfigurationError{Service: "RSS", MissingKey: "RSS_FEEDS"}
	}
	if userAgent == "" {
		userAgent = "newshub/1.0"
	}
	return &RSS{
		client:      newHTTPClient(timeout),
		urls:        urls,
		userAgent:   userAgent,
		maxArticles: maxArticles,
	}, nil
}

// Name returns the provider display name
func (r *RSS) Name() string { return "RSS" }

// FetchNews retrieves all configured feeds and normalizes their items into
// drafts. A failure on one feed fails the whole provider call; the
// orchestrator isolates it from other providers.
func (r *RSS) FetchNews(ctx context.Context) ([]domain.ArticleDraft, error) {
	var drafts []domain.ArticleDraft
	for _, feedURL := range r.urls {
		feedDrafts, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, feedDrafts...)
		if len(drafts) >= r.maxArticles {
			drafts = drafts[:r.maxArticles]
			break
		}
	}
	return drafts, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]domain.ArticleDraft, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, &ProviderError{Provider: r.Name(), Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: r.Name(), Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider:   r.Name(),
			Message:    fmt.Sprintf("feed request failed with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: r.Name(), Message: "parse feed", Err: err}
	}

	sourceName := cleanText(feed.Title)
	if sourceName == "" {
		sourceName = r.Name()
	}

	drafts := make([]domain.ArticleDraft, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue // essential fields missing, skip silently
		}

		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}

		category := CategoryGeneral
		if len(item.Categories) > 0 && item.Categories[0] != "" {
			category = cleanText(item.Categories[0])
		}

		author := ""
		if item.Author != nil {
			author = cleanText(item.Author.Name)
		}
		if author == "" {
			author = sourceName
		}

		imageURL := ""
		if item.Image != nil {
			imageURL = item.Image.URL
		}

		var published *time.Time
		if item.PublishedParsed != nil {
			utc := item.PublishedParsed.UTC()
			published = &utc
		} else if item.UpdatedParsed != nil {
			utc := item.UpdatedParsed.UTC()
			published = &utc
		}

		drafts = append(drafts, domain.ArticleDraft{
			ExternalID:   externalID("rss", guid),
			Title:        cleanText(item.Title),
			Description:  cleanText(item.Description),
			Content:      cleanText(item.Content),
			URL:          item.Link,
			ImageURL:     imageURL,
			Published:    published,
			SourceName:   sourceName,
			CategoryName: category,
			AuthorName:   author,
		})
	}
	return drafts, nil
}
