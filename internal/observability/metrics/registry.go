// Package metrics provides centralized Prometheus metrics for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collection metrics track collector adapter behavior per source.
var (
	// ItemsCollectedTotal counts items stored by collection passes.
	ItemsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_collected_total",
			Help: "Total number of raw content items stored",
		},
		[]string{"source_id"},
	)

	// ItemsDuplicatedTotal counts items rejected as duplicates.
	ItemsDuplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_duplicated_total",
			Help: "Total number of items rejected by deduplication",
		},
		[]string{"source_id"},
	)

	// CollectionDuration measures a single source collection pass.
	CollectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_collection_duration_seconds",
			Help:    "Duration of one source collection pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source_id"},
	)

	// CollectionErrorsTotal counts adapter-level collection failures.
	CollectionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_collection_errors_total",
			Help: "Total number of adapter-level collection failures",
		},
		[]string{"source_id", "error_type"},
	)
)

// Source health metrics mirror the health tracker state.
var (
	// SourceHealthScore exposes the current decaying health score.
	SourceHealthScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_source_health_score",
			Help: "Current health score of a source (0-100)",
		},
		[]string{"source_id"},
	)

	// SourceActive exposes whether the source circuit is closed (1) or open (0).
	SourceActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_source_active",
			Help: "Whether a source is active (1) or disabled (0)",
		},
		[]string{"source_id"},
	)

	// SourcesDisabledTotal counts automatic circuit-breaker trips.
	SourcesDisabledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_sources_disabled_total",
			Help: "Total number of automatic source deactivations",
		},
		[]string{"source_id"},
	)
)

// Classification metrics track the AI classification stage.
var (
	// ItemsClassifiedTotal counts classification outcomes by status.
	ItemsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_classified_total",
			Help: "Total number of classification attempts by outcome",
		},
		[]string{"status"},
	)

	// ClassificationDuration measures one AI classification call.
	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_classification_duration_seconds",
			Help:    "Duration of one AI classification call",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Matching and routing metrics.
var (
	// BusinessMatchesTotal counts matcher outcomes by path.
	BusinessMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_business_matches_total",
			Help: "Total number of business match lookups by outcome",
		},
		[]string{"outcome"}, // exact, fuzzy, none
	)

	// OpportunitiesTotal counts opportunity routing outcomes.
	OpportunitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_opportunities_total",
			Help: "Total number of opportunity routing outcomes",
		},
		[]string{"outcome"}, // created, deduplicated, suppressed, skipped
	)
)
