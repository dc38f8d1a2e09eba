package repository

import (
	"context"

	"localwire/internal/domain/entity"
)

// MentionRepository persists business mentions extracted from classified
// content. Mentions are immutable once created.
type MentionRepository interface {
	Create(ctx context.Context, mention *entity.BusinessMention) error
	ListByRawContent(ctx context.Context, rawContentID int64) ([]*entity.BusinessMention, error)
}
