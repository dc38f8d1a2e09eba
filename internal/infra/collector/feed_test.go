package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Town News</title>
    <item>
      <title>City Council Approves Budget</title>
      <link>https://town.example.com/budget</link>
      <description><![CDATA[<p>The council approved the budget.</p><img src="/img/council.jpg">]]></description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://town.example.com/untitled</link>
      <description>no title here</description>
    </item>
    <item>
      <title>New Bakery Opens Downtown</title>
      <link>https://town.example.com/bakery</link>
      <description>A bakery opened.</description>
    </item>
  </channel>
</rss>`

func feedSource(endpoint string) *entity.Source {
	return &entity.Source{
		ID:          1,
		CommunityID: 10,
		Name:        "Town News",
		SourceType:  entity.SourceTypeFeed,
		Endpoint:    endpoint,
		Active:      true,
	}
}

func TestFeedCollectorCollect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	fc := NewFeedCollector(server.Client())

	items, err := fc.Collect(context.Background(), feedSource(server.URL))
	require.NoError(t, err)

	// The untitled item is dropped.
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "City Council Approves Budget", first.Title)
	assert.Equal(t, "https://town.example.com/budget", first.URL)
	assert.Equal(t, "The council approved the budget.", first.Body)
	assert.Contains(t, first.BodyHTML, "<p>")
	assert.Equal(t, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC), first.PublishedAt.UTC())

	require.Len(t, first.ImageURLs, 1)
	assert.Contains(t, first.ImageURLs[0], "/img/council.jpg")
}

func TestFeedCollectorFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fc := NewFeedCollector(server.Client())

	_, err := fc.Collect(context.Background(), feedSource(server.URL))
	assert.Error(t, err)
}

type stubEnhancer struct {
	content string
	err     error
	calls   []string
}

func (s *stubEnhancer) FetchContent(_ context.Context, url string) (string, error) {
	s.calls = append(s.calls, url)
	return s.content, s.err
}

func TestFeedCollectorEnhancesThinBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	enhancer := &stubEnhancer{content: "The full story of the bakery opening, with details."}
	fc := NewFeedCollector(server.Client())
	fc.enhancer = enhancer
	fc.enhanceThreshold = 20

	items, err := fc.Collect(context.Background(), feedSource(server.URL))
	require.NoError(t, err)
	require.Len(t, items, 2)

	// "The council approved the budget." is over the threshold and stays.
	assert.Equal(t, "The council approved the budget.", items[0].Body)
	// "A bakery opened." is under it and gets the fetched text.
	assert.Equal(t, enhancer.content, items[1].Body)
	assert.Equal(t, []string{"https://town.example.com/bakery"}, enhancer.calls)
}

func TestFeedCollectorEnhancementFailureKeepsFeedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	fc := NewFeedCollector(server.Client())
	fc.enhancer = &stubEnhancer{err: assert.AnError}
	fc.enhanceThreshold = 1000

	items, err := fc.Collect(context.Background(), feedSource(server.URL))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A bakery opened.", items[1].Body)
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "Hello world", htmlToText("<p>Hello <b>world</b></p>"))
	assert.Equal(t, "", htmlToText(""))
	assert.Equal(t, "plain text", htmlToText("plain text"))
}
