// Package classify drains collected items through the AI completion
// collaborator, validates the structured response, annotates mentioned
// businesses via the matcher, and hands the result to the router. Items
// transition to classified or classification_failed exactly once.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"localwire/internal/domain/entity"
	"localwire/internal/observability/metrics"
	"localwire/internal/repository"
	"localwire/internal/usecase/match"
	"localwire/internal/usecase/route"
)

// Defaults for the classification pass.
const (
	DefaultPoolSize  = 3
	DefaultBatchSize = 50
)

// Completer produces the raw JSON classification for one item. The source
// is passed for prompt context (name, type, community); it may be nil when
// the source row is gone.
type Completer interface {
	Classify(ctx context.Context, item *entity.RawContent, src *entity.Source) ([]byte, error)
}

// Stats summarizes one classification pass.
type Stats struct {
	Processed  int
	Classified int
	Failed     int
	Duration   time.Duration
}

// Service orchestrates the classification pass.
type Service struct {
	contentRepo repository.RawContentRepository
	sourceRepo  repository.SourceRepository
	completer   Completer
	matcher     *match.Matcher
	router      *route.Router
	limiter     *rate.Limiter

	poolSize  int
	batchSize int
}

// NewService creates a classification Service. A nil limiter disables rate
// limiting; non-positive sizes fall back to the defaults.
func NewService(
	contentRepo repository.RawContentRepository,
	sourceRepo repository.SourceRepository,
	completer Completer,
	matcher *match.Matcher,
	router *route.Router,
	limiter *rate.Limiter,
	poolSize, batchSize int,
) *Service {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		contentRepo: contentRepo,
		sourceRepo:  sourceRepo,
		completer:   completer,
		matcher:     matcher,
		router:      router,
		limiter:     limiter,
		poolSize:    poolSize,
		batchSize:   batchSize,
	}
}

// ClassifyPending processes one batch of collected items. Item-level
// failures are recorded on the item and absorbed; the pass only errors when
// the backlog cannot be listed.
func (s *Service) ClassifyPending(ctx context.Context) (*Stats, error) {
	start := time.Now()

	items, err := s.contentRepo.ListUnclassified(ctx, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("list unclassified items: %w", err)
	}

	stats := &Stats{Processed: len(items)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.poolSize)

	for _, item := range items {
		g.Go(func() error {
			err := s.classifyItem(gctx, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
			} else {
				stats.Classified++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	if stats.Processed > 0 {
		slog.Info("classification pass finished",
			slog.Int("processed", stats.Processed),
			slog.Int("classified", stats.Classified),
			slog.Int("failed", stats.Failed),
			slog.Duration("duration", stats.Duration))
	}
	return stats, nil
}

// classifyItem runs one item end to end. Any failure before the classified
// transition marks the item classification_failed with the cause; routing
// failures after the transition are logged but do not revert it.
func (s *Service) classifyItem(ctx context.Context, item *entity.RawContent) error {
	start := time.Now()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	src, err := s.sourceRepo.Get(ctx, item.SourceID)
	if err != nil {
		// Prompt context only; classify without it.
		slog.Warn("source lookup failed for prompt context",
			slog.Int64("raw_content_id", item.ID),
			slog.Int64("source_id", item.SourceID),
			slog.Any("error", err))
		src = nil
	}

	raw, err := s.completer.Classify(ctx, item, src)
	if err != nil {
		return s.failItem(ctx, item, start, fmt.Errorf("completion request: %w", err))
	}

	classification, err := entity.ParseClassification(raw)
	if err != nil {
		return s.failItem(ctx, item, start, err)
	}

	s.annotateBusinesses(ctx, item.CommunityID, classification)

	if err := s.contentRepo.MarkClassified(ctx, item.ID, classification); err != nil {
		return s.failItem(ctx, item, start, fmt.Errorf("persist classification: %w", err))
	}

	metrics.RecordClassification("classified", time.Since(start))

	if err := s.router.Route(ctx, item, classification); err != nil {
		// The item is already classified; routing is retried by ops, not
		// by re-running the AI call.
		slog.Error("routing classified item failed",
			slog.Int64("raw_content_id", item.ID),
			slog.Any("error", err))
	}
	return nil
}

// failItem records a classification failure on the item and in metrics.
func (s *Service) failItem(ctx context.Context, item *entity.RawContent, start time.Time, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return cause
	}

	if err := s.contentRepo.MarkClassificationFailed(ctx, item.ID, cause.Error()); err != nil {
		slog.Error("marking classification failure failed",
			slog.Int64("raw_content_id", item.ID),
			slog.Any("error", err))
	}

	metrics.RecordClassification("failed", time.Since(start))
	slog.Warn("classification failed",
		slog.Int64("raw_content_id", item.ID),
		slog.String("title", item.Title),
		slog.Any("error", cause))
	return cause
}

// annotateBusinesses resolves each mentioned business through the matcher.
// Resolution is best effort: matcher errors leave the entry unresolved so a
// registry outage cannot fail classification.
func (s *Service) annotateBusinesses(ctx context.Context, communityID int64, c *entity.Classification) {
	for i := range c.BusinessesMentioned {
		mb := &c.BusinessesMentioned[i]
		if mb.Name == "" {
			continue
		}

		business, score, err := s.matcher.FindMatch(ctx, communityID, mb.Name)
		if err != nil {
			slog.Warn("business match failed",
				slog.String("name", mb.Name),
				slog.Any("error", err))
			continue
		}
		if business == nil {
			continue
		}

		mb.BusinessID = &business.ID
		mb.IsAdvertiser = business.IsAdvertiser
		mb.IsCustomer = business.IsCustomer
		mb.Confidence = score
	}
}
