package metrics

import (
	"strconv"
	"time"
)

// RecordCollection records the outcome of one source collection pass.
func RecordCollection(sourceID int64, duration time.Duration, stored, duplicates int) {
	id := strconv.FormatInt(sourceID, 10)
	CollectionDuration.WithLabelValues(id).Observe(duration.Seconds())
	if stored > 0 {
		ItemsCollectedTotal.WithLabelValues(id).Add(float64(stored))
	}
	if duplicates > 0 {
		ItemsDuplicatedTotal.WithLabelValues(id).Add(float64(duplicates))
	}
}

// RecordCollectionError records an adapter-level collection failure.
// errorType should be a coarse category such as "fetch_failed" or
// "render_timeout".
func RecordCollectionError(sourceID int64, errorType string) {
	CollectionErrorsTotal.WithLabelValues(strconv.FormatInt(sourceID, 10), errorType).Inc()
}

// RecordSourceHealth mirrors the health tracker state into gauges.
func RecordSourceHealth(sourceID int64, score int, active bool) {
	id := strconv.FormatInt(sourceID, 10)
	SourceHealthScore.WithLabelValues(id).Set(float64(score))
	if active {
		SourceActive.WithLabelValues(id).Set(1)
	} else {
		SourceActive.WithLabelValues(id).Set(0)
	}
}

// RecordSourceDisabled records an automatic circuit-breaker trip.
func RecordSourceDisabled(sourceID int64) {
	SourcesDisabledTotal.WithLabelValues(strconv.FormatInt(sourceID, 10)).Inc()
}

// RecordClassification records one classification attempt.
// Status should be "classified" or "failed".
func RecordClassification(status string, duration time.Duration) {
	ItemsClassifiedTotal.WithLabelValues(status).Inc()
	ClassificationDuration.Observe(duration.Seconds())
}

// RecordBusinessMatch records a matcher outcome: "exact", "fuzzy" or "none".
func RecordBusinessMatch(outcome string) {
	BusinessMatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordOpportunity records an opportunity routing outcome:
// "created", "deduplicated", "suppressed" or "skipped".
func RecordOpportunity(outcome string) {
	OpportunitiesTotal.WithLabelValues(outcome).Inc()
}
