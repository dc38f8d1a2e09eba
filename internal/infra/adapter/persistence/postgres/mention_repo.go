package postgres

import (
	"context"
	"fmt"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
)

type MentionRepo struct{ db DB }

func NewMentionRepo(db DB) repository.MentionRepository {
	return &MentionRepo{db: db}
}

func (repo *MentionRepo) Create(ctx context.Context, mention *entity.BusinessMention) error {
	const query = `
INSERT INTO business_mentions
       (community_id, raw_content_id, business_id, business_name, role,
        is_primary, context, confidence)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		mention.CommunityID, mention.RawContentID, mention.BusinessID,
		mention.BusinessName, mention.Role, mention.IsPrimary,
		mention.Context, mention.Confidence,
	).Scan(&mention.ID, &mention.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *MentionRepo) ListByRawContent(ctx context.Context, rawContentID int64) ([]*entity.BusinessMention, error) {
	const query = `
SELECT id, community_id, raw_content_id, business_id, business_name, role,
       is_primary, context, confidence, created_at
FROM business_mentions
WHERE raw_content_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, rawContentID)
	if err != nil {
		return nil, fmt.Errorf("ListByRawContent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	mentions := make([]*entity.BusinessMention, 0, 8)
	for rows.Next() {
		var m entity.BusinessMention
		if err := rows.Scan(
			&m.ID, &m.CommunityID, &m.RawContentID, &m.BusinessID,
			&m.BusinessName, &m.Role, &m.IsPrimary, &m.Context,
			&m.Confidence, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListByRawContent: %w", err)
		}
		mentions = append(mentions, &m)
	}
	return mentions, rows.Err()
}
