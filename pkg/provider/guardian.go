package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newshub/pkg/domain"
)

// Guardian fetches news from the Guardian content API
type Guardian struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	maxArticles int
}

// guardianResponse is the subset of the Guardian search response we consume
type guardianResponse struct {
	Response struct {
		Results []struct {
			ID                 string `json:"id"`
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			SectionName        string `json:"sectionName"`
			Fields             struct {
				TrailText string `json:"trailText"`
				BodyText  string `json:"bodyText"`
				Thumbnail string `json:"thumbnail"`
				Byline    string `json:"byline"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// NewGuardian creates a Guardian adapter, failing fast when the API key is absent
func NewGuardian(apiKey, baseURL string, timeout time.Duration, maxArticles int) (*Guardian, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Service: "The Guardian", MissingKey: "GUARDIAN_API_KEY"}
	}
	if baseURL == "" {
		baseURL = "https://content.guardianapis.com"
	}
	return &Guardian{
		client:      newHTTPClient(timeout),
		apiKey:      apiKey,
		baseURL:     baseURL,
		maxArticles: maxArticles,
	}, nil
}

// Name returns the provider display name, also used as the source label
func (g *Guardian) Name() string { return "The Guardian" }

// FetchNews retrieves the newest articles and normalizes them into drafts
func (g *Guardian) FetchNews(ctx context.Context) ([]domain.ArticleDraft, error) {
	params := url.Values{}
	params.Set("api-key", g.apiKey)
	params.Set("page-size", strconv.Itoa(g.maxArticles))
	params.Set("show-fields", "all")
	params.Set("order-by", "newest")

	var resp guardianResponse
	if err := fetchJSON(ctx, g.client, g.Name(), g.baseURL+"/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	drafts := make([]domain.ArticleDraft, 0, len(resp.Response.Results))
	for _, item := range resp.Response.Results {
		if item.ID == "" {
			continue // no stable id means no dedup key, skip the item
		}
		category := item.SectionName
		if category == "" {
			category = CategoryGeneral
		}
		author := cleanText(item.Fields.Byline)
		if author == "" {
			author = g.Name()
		}

		drafts = append(drafts, domain.ArticleDraft{
			ExternalID:   externalID("guardian", item.ID),
			Title:        cleanText(item.WebTitle),
			Description:  cleanText(item.Fields.TrailText),
			Content:      cleanText(item.Fields.BodyText),
			URL:          item.WebURL,
			ImageURL:     item.Fields.Thumbnail,
			Published:    parseDate(item.WebPublicationDate),
			SourceName:   g.Name(),
			CategoryName: category,
			AuthorName:   author,
		})
		if len(drafts) >= g.maxArticles {
			break
		}
	}
	return drafts, nil
}

// fetchJSON issues a GET and decodes the JSON body, wrapping every failure
// mode into a ProviderError
func fetchJSON(ctx context.Context, client *http.Client, provider, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return &ProviderError{Provider: provider, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &ProviderError{Provider: provider, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{
			Provider:   provider,
			Message:    fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: provider, Message: "decode response", Err: err}
	}
	return nil
}
