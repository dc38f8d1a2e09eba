package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"localwire/internal/domain/entity"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/resilience/retry"
)

// genericListSelectors are tried in order when a source carries no
// list selector. They cover the common article-container markup of
// small-town news sites.
var genericListSelectors = []string{
	"article",
	".post",
	".news-item",
	".entry",
	".story",
}

const (
	genericTitleSelector = "h1, h2, h3, .title, .headline"
	genericLinkSelector  = "a[href]"
	genericBodySelector  = "p"
)

// StaticCollector scrapes server-rendered HTML pages using goquery with
// per-source CSS selectors and generic fallbacks.
type StaticCollector struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewStaticCollector creates a StaticCollector with the given HTTP client.
func NewStaticCollector(client *http.Client) *StaticCollector {
	return &StaticCollector{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageScraperConfig()),
		retryConfig:    retry.PageScraperConfig(),
	}
}

// Collect fetches the source page and extracts its article containers.
func (s *StaticCollector) Collect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	var items []*entity.RawContent

	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		cbResult, err := s.circuitBreaker.Execute(func() (interface{}, error) {
			return s.doCollect(ctx, src)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("page scraper circuit breaker open, request rejected",
					slog.String("service", "page-scraper"),
					slog.String("url", src.Endpoint),
					slog.String("state", s.circuitBreaker.State().String()))
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

func (s *StaticCollector) doCollect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "page fetch failed"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return extractItems(doc, src), nil
}

// extractItems walks the article containers and pulls title, body, link and
// images per container. Containers without a title are skipped.
func extractItems(doc *goquery.Document, src *entity.Source) []*entity.RawContent {
	cfg := src.ScrapeConfig
	if cfg == nil {
		cfg = &entity.ScrapeConfig{}
	}

	base := cfg.BaseURL
	if base == "" {
		base = src.Endpoint
	}

	containers := findContainers(doc, cfg.ListSelector)

	titleSel := cfg.TitleSelector
	if titleSel == "" {
		titleSel = genericTitleSelector
	}
	linkSel := cfg.LinkSelector
	if linkSel == "" {
		linkSel = genericLinkSelector
	}
	bodySel := cfg.BodySelector
	if bodySel == "" {
		bodySel = genericBodySelector
	}

	var items []*entity.RawContent
	containers.Each(func(_ int, container *goquery.Selection) {
		title := strings.TrimSpace(container.Find(titleSel).First().Text())
		if title == "" {
			return
		}

		link := ""
		if href, ok := container.Find(linkSel).First().Attr("href"); ok {
			link = resolveURL(base, href)
		}
		if link == "" {
			// A page section without a link of its own is attributed
			// to the page itself.
			link = src.Endpoint
		}

		var paragraphs []string
		container.Find(bodySel).Each(func(_ int, p *goquery.Selection) {
			if text := strings.TrimSpace(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		var images []string
		container.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
			if len(images) >= entity.MaxImageURLs {
				return
			}
			if u, ok := img.Attr("src"); ok {
				if abs := resolveURL(base, u); abs != "" {
					images = append(images, abs)
				}
			}
		})

		bodyHTML, _ := container.Html()
		items = append(items, &entity.RawContent{
			Title:       title,
			Body:        strings.Join(paragraphs, "\n\n"),
			BodyHTML:    bodyHTML,
			URL:         link,
			ImageURLs:   images,
			PublishedAt: time.Now(),
		})
	})

	return items
}

// findContainers resolves the list selector, falling back to the first
// generic selector that matches anything.
func findContainers(doc *goquery.Document, listSelector string) *goquery.Selection {
	if listSelector != "" {
		return doc.Find(listSelector)
	}
	for _, sel := range genericListSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return doc.Find(genericListSelectors[0])
}
