package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRSS_NoFeeds(t *testing.T) {
	_, err := NewRSS(nil, "", time.Second, 50)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "RSS", cfgErr.Service)
}

func TestRSS_FetchNews(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Example Tech Blog</title>
	<link>http://example.com</link>
	<item>
		<title>Post &amp; Title</title>
		<link>http://example.com/post1</link>
		<description><![CDATA[<p>Post one description</p>]]></description>
		<pubDate>Wed, 15 Jan 2025 10:00:00 +0000</pubDate>
		<guid>http://example.com/post1</guid>
		<category>Programming</category>
		<author>writer@example.com (Sam Writer)</author>
	</item>
	<item>
		<title></title>
		<link>http://example.com/post2</link>
	</item>
	<item>
		<title>Post Three</title>
		<link>http://example.com/post3</link>
	</item>
</channel>
</rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssContent))
	}))
	defer server.Close()

	p, err := NewRSS([]string{server.URL}, "", 5*time.Second, 50)
	require.NoError(t, err)
	assert.Equal(t, "RSS", p.Name())

	drafts, err := p.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 2, "item without title dropped")

	first := drafts[0]
	assert.Equal(t, externalID("rss", "http://example.com/post1"), first.ExternalID)
	assert.Equal(t, "Post & Title", first.Title)
	assert.Equal(t, "Post one description", first.Description)
	assert.Equal(t, "Example Tech Blog", first.SourceName, "feed title used as source")
	assert.Equal(t, "Programming", first.CategoryName)
	assert.Equal(t, "Sam Writer", first.AuthorName)
	require.NotNil(t, first.Published)

	third := drafts[1]
	assert.Equal(t, externalID("rss", "http://example.com/post3"), third.ExternalID, "missing guid falls back to link")
	assert.Equal(t, "General", third.CategoryName)
	assert.Equal(t, "Example Tech Blog", third.AuthorName, "missing author falls back to feed title")
	assert.Nil(t, third.Published)
}

func TestRSS_FetchNews_Cap(t *testing.T) {
	rssContent := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
		<item><title>A</title><link>http://example.com/a</link></item>
		<item><title>B</title><link>http://example.com/b</link></item>
		<item><title>C</title><link>http://example.com/c</link></item>
	</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssContent))
	}))
	defer server.Close()

	p, err := NewRSS([]string{server.URL}, "", 5*time.Second, 2)
	require.NoError(t, err)

	drafts, err := p.FetchNews(context.Background())
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}

func TestRSS_FetchNews_NonCanonical2xx(t *testing.T) {
	rssContent := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
		<item><title>A</title><link>http://example.com/a</link></item>
	</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo) // some proxies rewrite 200 to 203
		w.Write([]byte(rssContent))
	}))
	defer server.Close()

	p, err := NewRSS([]string{server.URL}, "", 5*time.Second, 50)
	require.NoError(t, err)

	drafts, err := p.FetchNews(context.Background())
	require.NoError(t, err, "any 2xx status should be accepted")
	assert.Len(t, drafts, 1)
}

func TestRSS_FetchNews_FeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewRSS([]string{server.URL}, "", 5*time.Second, 50)
	require.NoError(t, err)

	_, err = p.FetchNews(context.Background())
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusNotFound, provErr.StatusCode)
}
