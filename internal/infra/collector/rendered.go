package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"localwire/internal/domain/entity"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/resilience/retry"
)

// DefaultRenderTimeout is the hard wall-clock limit for one renderer
// invocation. A page that has not rendered by then never will.
const DefaultRenderTimeout = 90 * time.Second

// renderedItem is the JSON shape the renderer script writes to stdout,
// one array of these per invocation.
type renderedItem struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	URL         string   `json:"url"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
}

// RenderedCollector scrapes JavaScript-heavy pages by delegating to a
// headless browser subprocess. The script receives the page URL as its
// only argument and prints a JSON array of items on stdout.
type RenderedCollector struct {
	scriptPath     string
	timeout        time.Duration
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRenderedCollector creates a RenderedCollector invoking the given
// renderer script. If scriptPath is empty, "render-page" on PATH is used.
func NewRenderedCollector(scriptPath string, timeout time.Duration) *RenderedCollector {
	if scriptPath == "" {
		scriptPath = "render-page"
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &RenderedCollector{
		scriptPath:     scriptPath,
		timeout:        timeout,
		circuitBreaker: circuitbreaker.New(circuitbreaker.RendererConfig()),
		retryConfig:    retry.RendererConfig(),
	}
}

// Collect renders the source page and decodes the extracted items.
func (r *RenderedCollector) Collect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	var items []*entity.RawContent

	retryErr := retry.WithBackoff(ctx, r.retryConfig, func() error {
		cbResult, err := r.circuitBreaker.Execute(func() (interface{}, error) {
			return r.doRender(ctx, src)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("renderer circuit breaker open, request rejected",
					slog.String("service", "renderer"),
					slog.String("url", src.Endpoint),
					slog.String("state", r.circuitBreaker.State().String()))
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

// doRender runs one renderer invocation under the hard timeout.
func (r *RenderedCollector) doRender(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.scriptPath, src.Endpoint)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("renderer timed out after %s for %s", r.timeout, src.Endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("renderer failed for %s: %v: %s",
			src.Endpoint, err, strings.TrimSpace(stderr.String()))
	}

	var rendered []renderedItem
	if err := json.Unmarshal(stdout.Bytes(), &rendered); err != nil {
		return nil, fmt.Errorf("decode renderer output for %s: %w", src.Endpoint, err)
	}

	slog.Debug("page rendered",
		slog.String("url", src.Endpoint),
		slog.Int("items", len(rendered)),
		slog.Duration("duration", duration))

	base := src.Endpoint
	if src.ScrapeConfig != nil && src.ScrapeConfig.BaseURL != "" {
		base = src.ScrapeConfig.BaseURL
	}

	items := make([]*entity.RawContent, 0, len(rendered))
	for _, ri := range rendered {
		if strings.TrimSpace(ri.Title) == "" {
			continue
		}

		pubAt := time.Now()
		if ri.PublishedAt != "" {
			if parsed, perr := time.Parse(time.RFC3339, ri.PublishedAt); perr == nil {
				pubAt = parsed
			}
		}

		images := ri.ImageURLs
		if len(images) > entity.MaxImageURLs {
			images = images[:entity.MaxImageURLs]
		}
		for i, u := range images {
			images[i] = resolveURL(base, u)
		}

		url := resolveURL(base, ri.URL)
		if url == "" {
			url = src.Endpoint
		}

		items = append(items, &entity.RawContent{
			Title:       strings.TrimSpace(ri.Title),
			Body:        ri.Body,
			URL:         url,
			ImageURLs:   images,
			PublishedAt: pubAt,
		})
	}

	return items, nil
}
