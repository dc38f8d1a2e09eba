// Package collector implements the source-type specific collection
// adapters: RSS/Atom feeds via gofeed, static pages via goquery, and
// JavaScript-heavy pages via a headless renderer subprocess. All adapters
// share retry and circuit breaker wrapping for the network edge.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"localwire/internal/domain/entity"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/resilience/retry"
)

const userAgent = "LocalWireBot"

// ContentEnhancer fetches the full article text behind a content URL.
// Feed bodies shorter than the enhancement threshold are replaced with the
// fetched text; any fetch error keeps the original body.
type ContentEnhancer interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// FeedCollector pulls items from RSS/Atom feeds using the gofeed library.
// It includes circuit breaker and retry logic for improved reliability.
type FeedCollector struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	enhancer         ContentEnhancer
	enhanceThreshold int
}

// NewFeedCollector creates a FeedCollector with the given HTTP client.
func NewFeedCollector(client *http.Client) *FeedCollector {
	return &FeedCollector{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Collect retrieves and parses the source's feed.
func (f *FeedCollector) Collect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	var items []*entity.RawContent

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doCollect(ctx, src)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", src.Endpoint),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]*entity.RawContent)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// doCollect performs the actual feed fetch without retry or circuit breaker.
func (f *FeedCollector) doCollect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(src.Endpoint, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*entity.RawContent, 0, len(feed.Items))
	for _, it := range feed.Items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}

		pubAt := time.Now()
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		}

		// Prefer full content, fall back to the description.
		contentHTML := it.Content
		if contentHTML == "" {
			contentHTML = it.Description
		}

		item := &entity.RawContent{
			Title:       strings.TrimSpace(it.Title),
			Body:        htmlToText(contentHTML),
			BodyHTML:    contentHTML,
			URL:         resolveURL(src.Endpoint, it.Link),
			ImageURLs:   feedImageURLs(it, contentHTML, src.Endpoint),
			PublishedAt: pubAt,
		}
		f.enhanceBody(ctx, item)
		items = append(items, item)
	}

	return items, nil
}

// enhanceBody replaces a thin feed body with the full article text when an
// enhancer is configured. Fetch failures keep the feed body.
func (f *FeedCollector) enhanceBody(ctx context.Context, item *entity.RawContent) {
	if f.enhancer == nil || item.URL == "" || len(item.Body) >= f.enhanceThreshold {
		return
	}

	full, err := f.enhancer.FetchContent(ctx, item.URL)
	if err != nil {
		slog.Debug("content enhancement failed, keeping feed body",
			slog.String("url", item.URL),
			slog.String("error", err.Error()))
		return
	}
	if strings.TrimSpace(full) == "" {
		return
	}
	item.Body = strings.TrimSpace(full)
}

// feedImageURLs gathers image URLs from the item enclosure, the feed image
// extension, and <img> tags in the content HTML, capped at
// entity.MaxImageURLs.
func feedImageURLs(it *gofeed.Item, contentHTML, base string) []string {
	var urls []string
	seen := map[string]bool{}

	add := func(u string) {
		u = resolveURL(base, u)
		if u == "" || seen[u] || len(urls) >= entity.MaxImageURLs {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	if it.Image != nil {
		add(it.Image.URL)
	}
	for _, enc := range it.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			add(enc.URL)
		}
	}

	if contentHTML != "" && len(urls) < entity.MaxImageURLs {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
		if err == nil {
			doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
				if src, ok := sel.Attr("src"); ok {
					add(src)
				}
			})
		}
	}

	return urls
}

// htmlToText strips markup from an HTML fragment, leaving collapsed text.
func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}
