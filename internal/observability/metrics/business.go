package metrics

import (
	"time"
)

// RecordPipelineRun records the outcome and duration of one regeneration run.
func RecordPipelineRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(duration.Seconds())
}

// RecordDraftsNormalized records drafts produced from raw source units.
func RecordDraftsNormalized(count int) {
	if count > 0 {
		DraftsNormalizedTotal.Add(float64(count))
	}
}

// RecordParseDefect records a raw unit that could not be turned into drafts.
func RecordParseDefect() {
	ParseDefectsTotal.Inc()
}

// RecordMergeDiagnostics records the non-fatal diagnostics of a merge pass.
func RecordMergeDiagnostics(tagConflicts, clusterSplits int) {
	if tagConflicts > 0 {
		MergeDiagnosticsTotal.WithLabelValues("tag_conflict").Add(float64(tagConflicts))
	}
	if clusterSplits > 0 {
		MergeDiagnosticsTotal.WithLabelValues("cluster_split").Add(float64(clusterSplits))
	}
}

// RecordEnrichment records the outcome counts of an enrichment pass.
func RecordEnrichment(attempted, applied, failures int) {
	unchanged := attempted - applied - failures
	if applied > 0 {
		EnrichmentResultsTotal.WithLabelValues("applied").Add(float64(applied))
	}
	if unchanged > 0 {
		EnrichmentResultsTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	}
	if failures > 0 {
		EnrichmentResultsTotal.WithLabelValues("failure").Add(float64(failures))
	}
}

// UpdateCorpusGauges updates the snapshot-level gauges after a publish.
func UpdateCorpusGauges(rulings, indexTokens int) {
	RulingsTotal.Set(float64(rulings))
	IndexTokensTotal.Set(float64(indexTokens))
}

// RecordDBQuery records the duration of a database operation.
// Operation should describe the call (e.g., "load_corpus", "replace_corpus").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
