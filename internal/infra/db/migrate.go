package db

import (
	"database/sql"
)

// MigrateUp creates the pipeline schema. Statements are idempotent so the
// migration can run on every worker start.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id                    BIGSERIAL PRIMARY KEY,
    community_id          BIGINT NOT NULL,
    name                  TEXT NOT NULL,
    source_type           VARCHAR(20) NOT NULL DEFAULT 'feed',
    endpoint              TEXT NOT NULL,
    scrape_config         JSONB,
    poll_interval_seconds BIGINT NOT NULL DEFAULT 900,
    consecutive_failures  INTEGER NOT NULL DEFAULT 0,
    health_score          INTEGER NOT NULL DEFAULT 100,
    active                BOOLEAN NOT NULL DEFAULT TRUE,
    last_success_at       TIMESTAMPTZ,
    last_failure_at       TIMESTAMPTZ,
    last_error            TEXT NOT NULL DEFAULT '',
    UNIQUE(community_id, endpoint)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS raw_content (
    id                   BIGSERIAL PRIMARY KEY,
    community_id         BIGINT NOT NULL,
    source_id            BIGINT NOT NULL REFERENCES sources(id),
    title                TEXT NOT NULL,
    body                 TEXT NOT NULL DEFAULT '',
    body_html            TEXT NOT NULL DEFAULT '',
    url                  TEXT NOT NULL DEFAULT '',
    image_urls           JSONB,
    published_at         TIMESTAMPTZ,
    content_hash         VARCHAR(64) NOT NULL,
    title_hash           VARCHAR(64) NOT NULL,
    status               VARCHAR(30) NOT NULL DEFAULT 'collected',
    classification       JSONB,
    classification_error TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    classified_at        TIMESTAMPTZ,
    UNIQUE(community_id, content_hash)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS businesses (
    id              BIGSERIAL PRIMARY KEY,
    community_id    BIGINT NOT NULL,
    name            TEXT NOT NULL,
    normalized_name TEXT NOT NULL DEFAULT '',
    is_advertiser   BOOLEAN NOT NULL DEFAULT FALSE,
    is_customer     BOOLEAN NOT NULL DEFAULT FALSE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS business_mentions (
    id             BIGSERIAL PRIMARY KEY,
    community_id   BIGINT NOT NULL,
    raw_content_id BIGINT NOT NULL REFERENCES raw_content(id),
    business_id    BIGINT REFERENCES businesses(id),
    business_name  TEXT NOT NULL,
    role           VARCHAR(20) NOT NULL DEFAULT 'mentioned',
    is_primary     BOOLEAN NOT NULL DEFAULT FALSE,
    context        TEXT NOT NULL DEFAULT '',
    confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sales_opportunities (
    id                BIGSERIAL PRIMARY KEY,
    community_id      BIGINT NOT NULL,
    business_id       BIGINT REFERENCES businesses(id),
    business_name     TEXT NOT NULL,
    opportunity_type  VARCHAR(50) NOT NULL DEFAULT '',
    quality           VARCHAR(10) NOT NULL,
    status            VARCHAR(20) NOT NULL DEFAULT 'new',
    priority_score    INTEGER NOT NULL,
    trigger_action    TEXT NOT NULL DEFAULT '',
    source_content_id BIGINT REFERENCES raw_content(id),
    activities        JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		// Collection: active source scan.
		`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
		// Classification backlog: oldest collected first.
		`CREATE INDEX IF NOT EXISTS idx_raw_content_status_created ON raw_content(status, created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_content_source_id ON raw_content(source_id)`,
		// Matcher: exact lookup and candidate scan per community.
		`CREATE INDEX IF NOT EXISTS idx_businesses_community_name ON businesses(community_id, lower(name))`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_raw_content ON business_mentions(raw_content_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_business ON business_mentions(business_id)`,
		// Router dedup: open opportunity lookup by name.
		`CREATE INDEX IF NOT EXISTS idx_opportunities_open_name
		     ON sales_opportunities(community_id, lower(business_name))
		     WHERE status IN ('new', 'assigned', 'contacted')`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the pipeline tables in dependency order.
// Use with caution: this deletes all pipeline data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS sales_opportunities CASCADE`,
		`DROP TABLE IF EXISTS business_mentions CASCADE`,
		`DROP TABLE IF EXISTS raw_content CASCADE`,
		`DROP TABLE IF EXISTS businesses CASCADE`,
		`DROP TABLE IF EXISTS sources CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
