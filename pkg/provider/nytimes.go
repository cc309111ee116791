package provider

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"newshub/pkg/domain"
)

// NYTimes fetches news from the New York Times article search API
type NYTimes struct {
	client      *http.Client
	apiKey      string
	baseURL     string
	maxArticles int
}

// nytimesResponse is the subset of the article search response we consume
type nytimesResponse struct {
	Response struct {
		Docs []struct {
			ID       string `json:"_id"`
			Headline struct {
				Main string `json:"main"`
			} `json:"headline"`
			Abstract      string `json:"abstract"`
			LeadParagraph string `json:"lead_paragraph"`
			WebURL        string `json:"web_url"`
			PubDate       string `json:"pub_date"`
			SectionName   string `json:"section_name"`
			Multimedia    []struct {
				URL  string `json:"url"`
				Type string `json:"type"`
			} `json:"multimedia"`
			Byline struct {
				Original string `json:"original"`
				Person   []struct {
					Firstname  string `json:"firstname"`
					Middlename string `json:"middlename"`
					Lastname   string `json:"lastname"`
				} `json:"person"`
			} `json:"byline"`
		} `json:"docs"`
	} `json:"response"`
}

var spacesRe = regexp.MustCompile(`\s+`)

// NewNYTimes creates a NYTimes adapter, failing fast when the API key is absent
func NewNYTimes(apiKey, baseURL string, timeout time.Duration, maxArticles int) (*NYTimes, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Service: "New York Times", MissingKey: "NYTIMES_API_KEY"}
	}
	if baseURL == "" {
		baseURL = "https://api.nytimes.com/svc/search/v2"
	}
	return &NYTimes{
		client:      newHTTPClient(timeout),
		apiKey:      apiKey,
		baseURL:     baseURL,
		maxArticles: maxArticles,
	}, nil
}

// Name returns the provider display name, also used as the source label
func (n *NYTimes) Name() string { return "New York Times" }

// FetchNews retrieves the newest articles and normalizes them into drafts.
// The API has no page-size parameter, so the cap is applied by slicing.
func (n *NYTimes) FetchNews(ctx context.Context) ([]domain.ArticleDraft, error) {
	params := url.Values{}
	params.Set("api-key", n.apiKey)
	params.Set("sort", "newest")
	params.Set("page", "0")
	params.Set("fl", "headline,abstract,lead_paragraph,web_url,multimedia,pub_date,byline,section_name,_id")

	var resp nytimesResponse
	if err := fetchJSON(ctx, n.client, n.Name(), n.baseURL+"/articlesearch.json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	docs := resp.Response.Docs
	if len(docs) > n.maxArticles {
		docs = docs[:n.maxArticles]
	}

	drafts := make([]domain.ArticleDraft, 0, len(docs))
	for _, doc := range docs {
		category := doc.SectionName
		if category == "" {
			category = CategoryGeneral
		}

		imageURL := ""
		for _, media := range doc.Multimedia {
			if media.Type == "image" && media.URL != "" {
				imageURL = "https://www.nytimes.com/" + media.URL
				break
			}
		}

		author := cleanText(doc.Byline.Original)
		if author == "" && len(doc.Byline.Person) > 0 {
			p := doc.Byline.Person[0]
			joined := strings.TrimSpace(p.Firstname + " " + p.Middlename + " " + p.Lastname)
			author = spacesRe.ReplaceAllString(joined, " ")
		}
		if author == "" {
			author = n.Name()
		}

		drafts = append(drafts, domain.ArticleDraft{
			ExternalID:   externalID("nytimes", doc.ID),
			Title:        cleanText(doc.Headline.Main),
			Description:  cleanText(doc.Abstract),
			Content:      cleanText(doc.LeadParagraph),
			URL:          doc.WebURL,
			ImageURL:     imageURL,
			Published:    parseDate(doc.PubDate),
			SourceName:   n.Name(),
			CategoryName: category,
			AuthorName:   author,
		})
	}
	return drafts, nil
}
