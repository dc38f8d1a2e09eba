// Package entity defines the core domain entities and validation logic for
// the content pipeline: sources, raw content items, businesses, mentions,
// and sales opportunities.
package entity

import "time"

// RawContent processing statuses. An item is stored as collected, then
// transitioned exactly once by the classification engine.
const (
	StatusCollected            = "collected"
	StatusClassified           = "classified"
	StatusClassificationFailed = "classification_failed"
)

// MaxImageURLs bounds how many image URLs a collector extracts per item.
const MaxImageURLs = 5

// RawContent represents one externally observed item scoped to a community.
// ContentHash is unique within a community; the persistence layer enforces
// this with a (community_id, content_hash) uniqueness constraint.
type RawContent struct {
	ID          int64
	CommunityID int64
	SourceID    int64

	Title       string
	Body        string
	BodyHTML    string
	URL         string
	ImageURLs   []string
	PublishedAt time.Time

	ContentHash string
	TitleHash   string

	Status              string
	Classification      *Classification
	ClassificationError string

	CreatedAt    time.Time
	ClassifiedAt *time.Time
}
