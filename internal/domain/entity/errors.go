package entity

import "errors"

// Domain errors shared across the pipeline.
var (
	// ErrInvalidClassification marks an AI response that failed to parse or
	// violated the response schema.
	ErrInvalidClassification = errors.New("invalid classification response")

	// ErrSourceInactive is returned when collection is attempted against a
	// source that the health tracker has disabled.
	ErrSourceInactive = errors.New("source is inactive")

	// ErrDuplicateContent is returned by the persistence layer when the
	// (community_id, content_hash) uniqueness constraint rejects an insert.
	ErrDuplicateContent = errors.New("duplicate content")
)
