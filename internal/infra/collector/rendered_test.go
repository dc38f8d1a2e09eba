package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
)

// writeScript creates an executable stand-in for the renderer binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "render-page")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func renderedSource(endpoint string) *entity.Source {
	return &entity.Source{
		ID:          3,
		CommunityID: 10,
		Name:        "SPA Site",
		SourceType:  entity.SourceTypeScrape,
		Endpoint:    endpoint,
		ScrapeConfig: &entity.ScrapeConfig{
			RequiresDynamicRendering: true,
		},
		Active: true,
	}
}

func TestRenderedCollectorCollect(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
[
  {"title": "Concert in the Park", "body": "Live music Friday.", "url": "/events/concert",
   "image_urls": ["/img/band.jpg"], "published_at": "2026-08-20T18:00:00Z"},
  {"title": "  ", "body": "no title", "url": "/skip"}
]
EOF`)

	rc := NewRenderedCollector(script, time.Minute)

	items, err := rc.Collect(context.Background(), renderedSource("https://spa.example.com/news"))
	require.NoError(t, err)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "Concert in the Park", item.Title)
	assert.Equal(t, "Live music Friday.", item.Body)
	assert.Equal(t, "https://spa.example.com/events/concert", item.URL)
	require.Len(t, item.ImageURLs, 1)
	assert.Equal(t, "https://spa.example.com/img/band.jpg", item.ImageURLs[0])
	assert.Equal(t, time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC), item.PublishedAt.UTC())
}

func TestRenderedCollectorScriptFailure(t *testing.T) {
	script := writeScript(t, `echo "render crashed" >&2; exit 1`)

	rc := NewRenderedCollector(script, time.Minute)

	_, err := rc.Collect(context.Background(), renderedSource("https://spa.example.com/news"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render crashed")
}

func TestRenderedCollectorBadOutput(t *testing.T) {
	script := writeScript(t, `echo "this is not json"`)

	rc := NewRenderedCollector(script, time.Minute)

	_, err := rc.Collect(context.Background(), renderedSource("https://spa.example.com/news"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode renderer output")
}

func TestRenderedCollectorTimeout(t *testing.T) {
	script := writeScript(t, `sleep 5`)

	rc := NewRenderedCollector(script, 100*time.Millisecond)

	_, err := rc.Collect(context.Background(), renderedSource("https://spa.example.com/news"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestFactorySelectsAdapter(t *testing.T) {
	factory := NewFactory(nil, "", 0)

	feedSrc := &entity.Source{SourceType: entity.SourceTypeFeed}
	c, err := factory.CollectorFor(feedSrc)
	require.NoError(t, err)
	assert.IsType(t, &FeedCollector{}, c)

	staticSrc := &entity.Source{
		SourceType:   entity.SourceTypeScrape,
		ScrapeConfig: &entity.ScrapeConfig{},
	}
	c, err = factory.CollectorFor(staticSrc)
	require.NoError(t, err)
	assert.IsType(t, &StaticCollector{}, c)

	dynamicSrc := &entity.Source{
		SourceType:   entity.SourceTypeScrape,
		ScrapeConfig: &entity.ScrapeConfig{RequiresDynamicRendering: true},
	}
	c, err = factory.CollectorFor(dynamicSrc)
	require.NoError(t, err)
	assert.IsType(t, &RenderedCollector{}, c)

	_, err = factory.CollectorFor(&entity.Source{SourceType: "ftp"})
	assert.Error(t, err)
}
