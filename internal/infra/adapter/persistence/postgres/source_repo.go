// Package postgres implements the repository interfaces on PostgreSQL
// through database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
)

type SourceRepo struct{ db DB }

func NewSourceRepo(db DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const sourceColumns = `
id, community_id, name, source_type, endpoint, scrape_config,
poll_interval_seconds, consecutive_failures, health_score, active,
last_success_at, last_failure_at, last_error`

// scanSource scans one source row including the scrape_config JSON.
func scanSource(row interface{ Scan(...any) error }) (*entity.Source, error) {
	var (
		source           entity.Source
		scrapeConfigJSON []byte
		pollSeconds      int64
		lastError        sql.NullString
	)
	if err := row.Scan(
		&source.ID, &source.CommunityID, &source.Name, &source.SourceType,
		&source.Endpoint, &scrapeConfigJSON, &pollSeconds,
		&source.ConsecutiveFailures, &source.HealthScore, &source.Active,
		&source.LastSuccessAt, &source.LastFailureAt, &lastError,
	); err != nil {
		return nil, err
	}

	source.PollInterval = time.Duration(pollSeconds) * time.Second
	source.LastError = lastError.String

	if len(scrapeConfigJSON) > 0 {
		var config entity.ScrapeConfig
		if err := json.Unmarshal(scrapeConfigJSON, &config); err != nil {
			return nil, fmt.Errorf("unmarshal scrape_config: %w", err)
		}
		source.ScrapeConfig = &config
	}

	return &source, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	const query = `
SELECT` + sourceColumns + `
FROM sources
WHERE id = $1
LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("Get: source %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	const query = `
SELECT` + sourceColumns + `
FROM sources
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 50)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) UpdateHealth(ctx context.Context, source *entity.Source) error {
	const query = `
UPDATE sources SET
       consecutive_failures = $1,
       health_score         = $2,
       active               = $3,
       last_success_at      = $4,
       last_failure_at      = $5,
       last_error           = $6
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, query,
		source.ConsecutiveFailures, source.HealthScore, source.Active,
		source.LastSuccessAt, source.LastFailureAt, source.LastError,
		source.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateHealth: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateHealth: no rows affected")
	}
	return nil
}
