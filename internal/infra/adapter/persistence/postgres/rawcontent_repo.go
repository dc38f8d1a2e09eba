package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"localwire/internal/domain/entity"
	"localwire/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a uniqueness constraint
// violation, raised by concurrent inserts of the same content hash.
const uniqueViolation = "23505"

type RawContentRepo struct{ db DB }

func NewRawContentRepo(db DB) repository.RawContentRepository {
	return &RawContentRepo{db: db}
}

func (repo *RawContentRepo) Create(ctx context.Context, item *entity.RawContent) error {
	imageURLs, err := json.Marshal(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("Create: marshal image_urls: %w", err)
	}

	const query = `
INSERT INTO raw_content
       (community_id, source_id, title, body, body_html, url, image_urls,
        published_at, content_hash, title_hash, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at`
	err = repo.db.QueryRowContext(ctx, query,
		item.CommunityID, item.SourceID, item.Title, item.Body, item.BodyHTML,
		item.URL, imageURLs, item.PublishedAt, item.ContentHash,
		item.TitleHash, item.Status,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrDuplicateContent
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *RawContentRepo) ExistsByHash(ctx context.Context, communityID int64, contentHash string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM raw_content
    WHERE community_id = $1 AND content_hash = $2
)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, communityID, contentHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsByHash: %w", err)
	}
	return exists, nil
}

func (repo *RawContentRepo) ExistsByHashBatch(ctx context.Context, communityID int64, hashes []string) (map[string]bool, error) {
	result := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return result, nil
	}

	const query = `
SELECT content_hash FROM raw_content
WHERE community_id = $1 AND content_hash = ANY($2)`
	rows, err := repo.db.QueryContext(ctx, query, communityID, hashes)
	if err != nil {
		return nil, fmt.Errorf("ExistsByHashBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("ExistsByHashBatch: %w", err)
		}
		result[hash] = true
	}
	return result, rows.Err()
}

func (repo *RawContentRepo) ListUnclassified(ctx context.Context, limit int) ([]*entity.RawContent, error) {
	const query = `
SELECT id, community_id, source_id, title, body, body_html, url, image_urls,
       published_at, content_hash, title_hash, status, created_at
FROM raw_content
WHERE status = $1
ORDER BY created_at ASC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, entity.StatusCollected, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnclassified: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*entity.RawContent, 0, limit)
	for rows.Next() {
		var (
			item      entity.RawContent
			imageURLs []byte
		)
		if err := rows.Scan(
			&item.ID, &item.CommunityID, &item.SourceID, &item.Title,
			&item.Body, &item.BodyHTML, &item.URL, &imageURLs,
			&item.PublishedAt, &item.ContentHash, &item.TitleHash,
			&item.Status, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListUnclassified: %w", err)
		}
		if len(imageURLs) > 0 {
			if err := json.Unmarshal(imageURLs, &item.ImageURLs); err != nil {
				return nil, fmt.Errorf("ListUnclassified: unmarshal image_urls: %w", err)
			}
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (repo *RawContentRepo) MarkClassified(ctx context.Context, id int64, classification *entity.Classification) error {
	payload, err := json.Marshal(classification)
	if err != nil {
		return fmt.Errorf("MarkClassified: marshal classification: %w", err)
	}

	const query = `
UPDATE raw_content SET
       status               = $1,
       classification       = $2,
       classification_error = '',
       classified_at        = now()
WHERE id = $3 AND status = $4`
	res, err := repo.db.ExecContext(ctx, query,
		entity.StatusClassified, payload, id, entity.StatusCollected)
	if err != nil {
		return fmt.Errorf("MarkClassified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkClassified: item %d not in collected status", id)
	}
	return nil
}

func (repo *RawContentRepo) MarkClassificationFailed(ctx context.Context, id int64, reason string) error {
	const query = `
UPDATE raw_content SET
       status               = $1,
       classification_error = $2,
       classified_at        = now()
WHERE id = $3 AND status = $4`
	res, err := repo.db.ExecContext(ctx, query,
		entity.StatusClassificationFailed, reason, id, entity.StatusCollected)
	if err != nil {
		return fmt.Errorf("MarkClassificationFailed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkClassificationFailed: item %d not in collected status", id)
	}
	return nil
}
