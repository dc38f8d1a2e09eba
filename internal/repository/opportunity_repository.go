package repository

import (
	"context"

	"localwire/internal/domain/entity"
)

// OpportunityRepository manages sales opportunities derived from content.
type OpportunityRepository interface {
	Create(ctx context.Context, opp *entity.SalesOpportunity) error

	// FindOpenByBusinessName returns the open opportunity (status new,
	// assigned, or contacted) for a business name within a community, or
	// (nil, nil) when none exists.
	FindOpenByBusinessName(ctx context.Context, communityID int64, businessName string) (*entity.SalesOpportunity, error)

	// AppendActivity appends one entry to an opportunity's activity log.
	AppendActivity(ctx context.Context, id int64, activity entity.OpportunityActivity) error
}
