// Package collect runs the collection pass: it fans out over active sources
// with a bounded worker pool, pulls items through type-specific collector
// adapters, deduplicates them by content hash, and stores the survivors for
// classification. Every source attempt feeds the health tracker.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"localwire/internal/domain/entity"
	"localwire/internal/observability/metrics"
	"localwire/internal/repository"
	"localwire/internal/usecase/health"
)

// DefaultPoolSize bounds concurrent source collections when no explicit
// pool size is configured.
const DefaultPoolSize = 5

// Collector pulls items from one source. Adapters fill Title, Body,
// BodyHTML, URL, ImageURLs and PublishedAt; the service owns identity,
// hashing and persistence.
type Collector interface {
	Collect(ctx context.Context, src *entity.Source) ([]*entity.RawContent, error)
}

// CollectorFactory selects the adapter for a source by its type and
// scrape configuration.
type CollectorFactory interface {
	CollectorFor(src *entity.Source) (Collector, error)
}

// Stats summarizes one full collection pass.
type Stats struct {
	Sources    int
	Succeeded  int
	Failed     int
	Stored     int
	Duplicates int
	Duration   time.Duration
}

// Service orchestrates collection across all active sources.
type Service struct {
	sourceRepo  repository.SourceRepository
	contentRepo repository.RawContentRepository
	collectors  CollectorFactory
	health      *health.Tracker
	poolSize    int
}

// NewService creates a collection Service. A non-positive poolSize falls
// back to DefaultPoolSize.
func NewService(
	sourceRepo repository.SourceRepository,
	contentRepo repository.RawContentRepository,
	collectors CollectorFactory,
	healthTracker *health.Tracker,
	poolSize int,
) *Service {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Service{
		sourceRepo:  sourceRepo,
		contentRepo: contentRepo,
		collectors:  collectors,
		health:      healthTracker,
		poolSize:    poolSize,
	}
}

// CollectAll runs one collection pass over every active source. Source
// failures are absorbed into health tracking and the returned stats; the
// pass itself only errors when the source registry cannot be listed.
func (s *Service) CollectAll(ctx context.Context) (*Stats, error) {
	start := time.Now()

	sources, err := s.sourceRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	stats := &Stats{Sources: len(sources)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.poolSize)

	for _, src := range sources {
		g.Go(func() error {
			stored, duplicates, err := s.collectSource(gctx, src)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				return nil // absorbed, the pass continues
			}
			stats.Succeeded++
			stats.Stored += stored
			stats.Duplicates += duplicates
			return nil
		})
	}

	// Workers never return errors, but Wait still observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	slog.Info("collection pass finished",
		slog.Int("sources", stats.Sources),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("stored", stats.Stored),
		slog.Int("duplicates", stats.Duplicates),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// collectSource runs one source end to end and records the outcome with the
// health tracker.
func (s *Service) collectSource(ctx context.Context, src *entity.Source) (stored, duplicates int, err error) {
	start := time.Now()

	collector, err := s.collectors.CollectorFor(src)
	if err != nil {
		metrics.RecordCollectionError(src.ID, "no_collector")
		if herr := s.health.RecordFailure(ctx, src, err); herr != nil {
			slog.Error("health update failed", slog.Int64("source_id", src.ID), slog.Any("error", herr))
		}
		return 0, 0, err
	}

	items, err := collector.Collect(ctx, src)
	if err != nil {
		metrics.RecordCollectionError(src.ID, "collect_failed")
		if herr := s.health.RecordFailure(ctx, src, err); herr != nil {
			slog.Error("health update failed", slog.Int64("source_id", src.ID), slog.Any("error", herr))
		}
		return 0, 0, fmt.Errorf("collect source %d: %w", src.ID, err)
	}

	stored, duplicates, err = s.storeItems(ctx, src, items)
	if err != nil {
		metrics.RecordCollectionError(src.ID, "store_failed")
		if herr := s.health.RecordFailure(ctx, src, err); herr != nil {
			slog.Error("health update failed", slog.Int64("source_id", src.ID), slog.Any("error", herr))
		}
		return stored, duplicates, err
	}

	if herr := s.health.RecordSuccess(ctx, src, stored, duplicates); herr != nil {
		slog.Error("health update failed", slog.Int64("source_id", src.ID), slog.Any("error", herr))
	}
	metrics.RecordCollection(src.ID, time.Since(start), stored, duplicates)
	return stored, duplicates, nil
}

// storeItems hashes, deduplicates and persists a batch of collected items.
// The batch existence check is a fast path; the uniqueness constraint on
// (community_id, content_hash) remains the authoritative guard and
// concurrent inserts surface as entity.ErrDuplicateContent, counted as
// duplicates rather than failures.
func (s *Service) storeItems(ctx context.Context, src *entity.Source, items []*entity.RawContent) (stored, duplicates int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	hashes := make([]string, 0, len(items))
	for _, item := range items {
		if NormalizeTitle(item.Title) == "" {
			continue
		}
		hashes = append(hashes, ContentHash(item.Title, item.URL))
	}
	if len(hashes) == 0 {
		return 0, 0, nil
	}

	existing, err := s.contentRepo.ExistsByHashBatch(ctx, src.CommunityID, hashes)
	if err != nil {
		return 0, 0, fmt.Errorf("check existing hashes: %w", err)
	}

	for _, item := range items {
		if NormalizeTitle(item.Title) == "" {
			continue
		}

		hash := ContentHash(item.Title, item.URL)
		if existing[hash] {
			duplicates++
			continue
		}

		item.CommunityID = src.CommunityID
		item.SourceID = src.ID
		item.ContentHash = hash
		item.TitleHash = TitleHash(item.Title)
		item.Status = entity.StatusCollected
		if len(item.ImageURLs) > entity.MaxImageURLs {
			item.ImageURLs = item.ImageURLs[:entity.MaxImageURLs]
		}

		if err := s.contentRepo.Create(ctx, item); err != nil {
			if errors.Is(err, entity.ErrDuplicateContent) {
				duplicates++
				continue
			}
			return stored, duplicates, fmt.Errorf("store item %q: %w", item.Title, err)
		}
		stored++
	}

	return stored, duplicates, nil
}
