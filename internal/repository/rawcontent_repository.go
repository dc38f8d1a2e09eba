package repository

import (
	"context"

	"localwire/internal/domain/entity"
)

// RawContentRepository manages collected content items.
type RawContentRepository interface {
	// Create persists a new item with status collected. It returns
	// entity.ErrDuplicateContent when the (community_id, content_hash)
	// uniqueness constraint rejects the insert; the constraint is the
	// authoritative dedup guard, ExistsByHash is only a fast path.
	Create(ctx context.Context, item *entity.RawContent) error

	// ExistsByHash reports whether a content hash is already stored for
	// the community.
	ExistsByHash(ctx context.Context, communityID int64, contentHash string) (bool, error)

	// ExistsByHashBatch checks many hashes in one query to avoid N+1
	// round trips during a collection pass.
	ExistsByHashBatch(ctx context.Context, communityID int64, hashes []string) (map[string]bool, error)

	// ListUnclassified returns up to limit items with status collected,
	// oldest first. This is the hand-off point between the collection and
	// classification worker pools.
	ListUnclassified(ctx context.Context, limit int) ([]*entity.RawContent, error)

	// MarkClassified transitions an item to classified and stores the
	// structured payload in a single write.
	MarkClassified(ctx context.Context, id int64, classification *entity.Classification) error

	// MarkClassificationFailed transitions an item to
	// classification_failed and records the error text.
	MarkClassificationFailed(ctx context.Context, id int64, reason string) error
}
