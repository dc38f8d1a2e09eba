package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
)

type BusinessRepo struct{ db DB }

func NewBusinessRepo(db DB) repository.BusinessRepository {
	return &BusinessRepo{db: db}
}

func (repo *BusinessRepo) Get(ctx context.Context, id int64) (*entity.Business, error) {
	const query = `
SELECT id, community_id, name, normalized_name, is_advertiser, is_customer
FROM businesses
WHERE id = $1
LIMIT 1`
	var b entity.Business
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.CommunityID, &b.Name, &b.NormalizedName,
		&b.IsAdvertiser, &b.IsCustomer,
	)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &b, nil
}

func (repo *BusinessRepo) FindByExactName(ctx context.Context, communityID int64, name string) (*entity.Business, error) {
	const query = `
SELECT id, community_id, name, normalized_name, is_advertiser, is_customer
FROM businesses
WHERE community_id = $1 AND lower(name) = lower($2)
LIMIT 1`
	var b entity.Business
	err := repo.db.QueryRowContext(ctx, query, communityID, name).Scan(
		&b.ID, &b.CommunityID, &b.Name, &b.NormalizedName,
		&b.IsAdvertiser, &b.IsCustomer,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByExactName: %w", err)
	}
	return &b, nil
}

func (repo *BusinessRepo) ListCandidates(ctx context.Context, communityID int64) ([]repository.BusinessCandidate, error) {
	const query = `
SELECT id, name, is_advertiser, is_customer
FROM businesses
WHERE community_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("ListCandidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]repository.BusinessCandidate, 0, 200)
	for rows.Next() {
		var c repository.BusinessCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.IsAdvertiser, &c.IsCustomer); err != nil {
			return nil, fmt.Errorf("ListCandidates: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
