package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newshub/pkg/domain"
)

// NewsAPI fetches top headlines from newsapi.org
type NewsAPI struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	maxArticles int
}

// newsAPIResponse is the subset of the top-headlines response we consume
type newsAPIResponse struct {
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPI creates a NewsAPI adapter, failing fast when the API key is absent
func NewNewsAPI(apiKey, baseURL string, timeout time.Duration, maxArticles int) (*NewsAPI, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Service: "NewsOrg", MissingKey: "NEWSORG_API_KEY"}
	}
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}
	return &NewsAPI{
		client:      newHTTPClient(timeout),
		apiKey:      apiKey,
		baseURL:     baseURL,
		maxArticles: maxArticles,
	}, nil
}

// Name returns the provider display name
func (n *NewsAPI) Name() string { return "NewsOrg" }

// FetchNews retrieves top headlines and normalizes them into drafts.
// Articles missing a title or URL are dropped rather than failing the batch.
func (n *NewsAPI) FetchNews(ctx context.Context) ([]domain.ArticleDraft, error) {
	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(n.maxArticles))

	var resp newsAPIResponse
	if err := fetchJSON(ctx, n.client, n.Name(), n.baseURL+"/top-headlines?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	drafts := make([]domain.ArticleDraft, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		if item.Title == "" || item.URL == "" {
			continue // essential fields missing, skip silently
		}

		sourceName := item.Source.Name
		if sourceName == "" {
			sourceName = n.Name()
		}
		author := cleanText(item.Author)
		if author == "" {
			author = n.Name()
		}

		drafts = append(drafts, domain.ArticleDraft{
			ExternalID:   externalID("newsapi", item.URL),
			Title:        cleanText(item.Title),
			Description:  cleanText(item.Description),
			Content:      cleanText(item.Content),
			URL:          item.URL,
			ImageURL:     item.URLToImage,
			Published:    parseDate(item.PublishedAt),
			SourceName:   sourceName,
			CategoryName: CategoryGeneral,
			AuthorName:   author,
		})
		if len(drafts) >= n.maxArticles {
			break
		}
	}
	return drafts, nil
}
