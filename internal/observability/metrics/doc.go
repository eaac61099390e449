// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Corpus metrics (rulings, index tokens)
//   - Pipeline metrics (runs, drafts, parse defects, merge diagnostics)
//   - Enrichment metrics (applied, unchanged, failures)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint of the schedule command.
//
// Example usage:
//
//	import "abyssal-tome/internal/observability/metrics"
//
//	func regenerate() {
//	    start := time.Now()
//	    // ... run the pipeline ...
//	    metrics.RecordPipelineRun(true, time.Since(start))
//	}
package metrics
