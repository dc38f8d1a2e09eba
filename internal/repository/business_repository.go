package repository

import (
	"context"

	"localwire/internal/domain/entity"
)

// BusinessCandidate is the slim projection of a business used by the fuzzy
// matcher: id, name, and relationship flags only, no heavy fields.
type BusinessCandidate struct {
	ID           int64
	Name         string
	IsAdvertiser bool
	IsCustomer   bool
}

// BusinessRepository provides read access to the canonical business
// registry. The registry is owned by external business management.
type BusinessRepository interface {
	Get(ctx context.Context, id int64) (*entity.Business, error)

	// FindByExactName looks up a business whose stored name equals the
	// given name case-insensitively, scoped to the community. Returns
	// (nil, nil) when there is no match.
	FindByExactName(ctx context.Context, communityID int64, name string) (*entity.Business, error)

	// ListCandidates returns the full candidate set for a community,
	// feeding the matcher's fuzzy scan.
	ListCandidates(ctx context.Context, communityID int64) ([]BusinessCandidate, error)
}
