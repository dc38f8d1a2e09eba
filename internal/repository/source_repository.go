// Package repository defines the persistence interfaces consumed by the
// pipeline use cases. Implementations live under internal/infra/adapter.
package repository

import (
	"context"

	"localwire/internal/domain/entity"
)

// SourceRepository manages configured content sources.
// Sources are created by external configuration management; the pipeline
// only reads them and updates their health state.
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.Source, error)
	// ListActive returns every source that the health tracker has not
	// disabled, across all communities.
	ListActive(ctx context.Context) ([]*entity.Source, error)
	// UpdateHealth persists the health-tracking fields of a source:
	// consecutive_failures, health_score, is_active, last success/failure
	// timestamps and last_error. No other fields are touched.
	UpdateHealth(ctx context.Context, source *entity.Source) error
}
