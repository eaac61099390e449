package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Corpus metrics track the state of the published ruling corpus
var (
	// RulingsTotal tracks the number of rulings in the current snapshot
	RulingsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rulings_total",
			Help: "Number of rulings in the published corpus snapshot",
		},
	)

	// IndexTokensTotal tracks the number of distinct tokens in the current index
	IndexTokensTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_tokens_total",
			Help: "Number of distinct tokens in the published search index",
		},
	)
)

// Pipeline metrics track regeneration runs
var (
	// PipelineRunsTotal counts regeneration runs by outcome
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline regeneration runs",
		},
		[]string{"status"}, // status: success, failure
	)

	// PipelineRunDuration measures end-to-end regeneration duration
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "End-to-end duration of a pipeline regeneration run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// DraftsNormalizedTotal counts drafts produced by the normalizer
	DraftsNormalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drafts_normalized_total",
			Help: "Total number of ruling drafts produced from raw source units",
		},
	)

	// ParseDefectsTotal counts raw units that yielded no drafts or failed to parse
	ParseDefectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parse_defects_total",
			Help: "Total number of raw source units recorded as parse defects",
		},
	)

	// MergeDiagnosticsTotal counts non-fatal merge diagnostics by kind
	MergeDiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merge_diagnostics_total",
			Help: "Total number of merge diagnostics recorded",
		},
		[]string{"kind"}, // kind: tag_conflict, cluster_split
	)

	// EnrichmentResultsTotal counts oracle enrichment outcomes by status
	EnrichmentResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_results_total",
			Help: "Total number of ruling enrichment attempts by outcome",
		},
		[]string{"status"}, // status: applied, unchanged, failure
	)
)

// Database metrics track corpus persistence performance
var (
	// DBQueryDuration measures database operation duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
