package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
)

type OpportunityRepo struct{ db DB }

func NewOpportunityRepo(db DB) repository.OpportunityRepository {
	return &OpportunityRepo{db: db}
}

func (repo *OpportunityRepo) Create(ctx context.Context, opp *entity.SalesOpportunity) error {
	activities, err := json.Marshal(opp.Activities)
	if err != nil {
		return fmt.Errorf("Create: marshal activities: %w", err)
	}

	const query = `
INSERT INTO sales_opportunities
       (community_id, business_id, business_name, opportunity_type, quality,
        status, priority_score, trigger_action, source_content_id, activities)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, updated_at`
	err = repo.db.QueryRowContext(ctx, query,
		opp.CommunityID, opp.BusinessID, opp.BusinessName,
		opp.OpportunityType, opp.Quality, opp.Status, opp.PriorityScore,
		opp.Trigger, opp.SourceContentID, activities,
	).Scan(&opp.ID, &opp.CreatedAt, &opp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *OpportunityRepo) FindOpenByBusinessName(ctx context.Context, communityID int64, businessName string) (*entity.SalesOpportunity, error) {
	const query = `
SELECT id, community_id, business_id, business_name, opportunity_type,
       quality, status, priority_score, trigger_action, source_content_id,
       activities, created_at, updated_at
FROM sales_opportunities
WHERE community_id = $1
  AND lower(business_name) = lower($2)
  AND status = ANY($3)
ORDER BY created_at DESC
LIMIT 1`
	var (
		opp        entity.SalesOpportunity
		activities []byte
	)
	err := repo.db.QueryRowContext(ctx, query,
		communityID, businessName, entity.OpenOpportunityStatuses,
	).Scan(
		&opp.ID, &opp.CommunityID, &opp.BusinessID, &opp.BusinessName,
		&opp.OpportunityType, &opp.Quality, &opp.Status, &opp.PriorityScore,
		&opp.Trigger, &opp.SourceContentID, &activities,
		&opp.CreatedAt, &opp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOpenByBusinessName: %w", err)
	}

	if len(activities) > 0 {
		if err := json.Unmarshal(activities, &opp.Activities); err != nil {
			return nil, fmt.Errorf("FindOpenByBusinessName: unmarshal activities: %w", err)
		}
	}
	return &opp, nil
}

func (repo *OpportunityRepo) AppendActivity(ctx context.Context, id int64, activity entity.OpportunityActivity) error {
	entry, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("AppendActivity: marshal activity: %w", err)
	}

	// JSONB concatenation appends atomically without read-modify-write.
	const query = `
UPDATE sales_opportunities SET
       activities = COALESCE(activities, '[]'::jsonb) || $1::jsonb,
       updated_at = now()
WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, entry, id)
	if err != nil {
		return fmt.Errorf("AppendActivity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("AppendActivity: opportunity %d not found", id)
	}
	return nil
}
