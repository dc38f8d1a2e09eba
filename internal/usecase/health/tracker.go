// Package health implements the per-source health state machine.
// Collection outcomes are the only transition driver: successes decay the
// failure counter and raise the score, failures lower it, and a run of
// consecutive failures opens the circuit by deactivating the source.
// Reactivation is an explicit operator action; there is no half-open state.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"localwire/internal/domain/entity"
	"localwire/internal/observability/metrics"
	"localwire/internal/repository"
)

// Tracker records collection outcomes against the source registry.
type Tracker struct {
	sourceRepo repository.SourceRepository
	now        func() time.Time
}

// NewTracker creates a health Tracker backed by the given repository.
func NewTracker(sourceRepo repository.SourceRepository) *Tracker {
	return &Tracker{sourceRepo: sourceRepo, now: time.Now}
}

// RecordSuccess applies the success transition to the source and persists
// the result: the failure counter resets, the health score rises by
// entity.HealthSuccessDelta (clamped to the maximum), and the success
// timestamp is stamped.
func (t *Tracker) RecordSuccess(ctx context.Context, src *entity.Source, stored, duplicates int) error {
	applySuccess(src, t.now())

	if err := t.sourceRepo.UpdateHealth(ctx, src); err != nil {
		return fmt.Errorf("persist source health: %w", err)
	}

	metrics.RecordSourceHealth(src.ID, src.HealthScore, src.Active)
	slog.Info("source collection succeeded",
		slog.Int64("source_id", src.ID),
		slog.Int("stored", stored),
		slog.Int("duplicates", duplicates),
		slog.Int("health_score", src.HealthScore))
	return nil
}

// RecordFailure applies the failure transition and persists it. Crossing
// entity.DisableFailureThreshold consecutive failures deactivates the
// source; it stays inactive until an operator re-enables it.
func (t *Tracker) RecordFailure(ctx context.Context, src *entity.Source, cause error) error {
	tripped := applyFailure(src, t.now(), cause)

	if err := t.sourceRepo.UpdateHealth(ctx, src); err != nil {
		return fmt.Errorf("persist source health: %w", err)
	}

	metrics.RecordSourceHealth(src.ID, src.HealthScore, src.Active)
	if tripped {
		metrics.RecordSourceDisabled(src.ID)
		slog.Warn("source disabled after repeated failures",
			slog.Int64("source_id", src.ID),
			slog.Int("consecutive_failures", src.ConsecutiveFailures))
	} else {
		slog.Warn("source collection failed",
			slog.Int64("source_id", src.ID),
			slog.Int("consecutive_failures", src.ConsecutiveFailures),
			slog.Int("health_score", src.HealthScore),
			slog.Any("error", cause))
	}
	return nil
}

// applySuccess mutates src in place with the success transition.
func applySuccess(src *entity.Source, at time.Time) {
	src.ConsecutiveFailures = 0
	src.HealthScore = clamp(src.HealthScore + entity.HealthSuccessDelta)
	src.LastSuccessAt = &at
	src.LastError = ""
}

// applyFailure mutates src in place with the failure transition and
// reports whether this failure tripped the breaker.
func applyFailure(src *entity.Source, at time.Time, cause error) bool {
	src.ConsecutiveFailures++
	src.HealthScore = clamp(src.HealthScore - entity.HealthFailureDelta)
	src.LastFailureAt = &at
	if cause != nil {
		src.LastError = cause.Error()
	}

	if src.ConsecutiveFailures >= entity.DisableFailureThreshold && src.Active {
		src.Active = false
		return true
	}
	return false
}

func clamp(score int) int {
	if score > entity.HealthScoreMax {
		return entity.HealthScoreMax
	}
	if score < entity.HealthScoreMin {
		return entity.HealthScoreMin
	}
	return score
}
