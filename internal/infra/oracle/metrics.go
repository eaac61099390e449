package oracle

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OracleMetricsRecorder defines the interface for recording Oracle call
// metrics. Abstracting it keeps the adapters testable with a mock recorder
// and the metrics backend swappable.
type OracleMetricsRecorder interface {
	// RecordDuration records the time taken by one Oracle API call.
	RecordDuration(duration time.Duration)

	// RecordSuggestions records how many tags and related codes one call
	// proposed.
	RecordSuggestions(tags, relatedCodes int)

	// RecordFailure increments the counter of Oracle calls that failed after
	// retries.
	RecordFailure()
}

// PrometheusOracleMetrics implements OracleMetricsRecorder using Prometheus.
type PrometheusOracleMetrics struct {
	durationHistogram prometheus.Histogram
	tagsHistogram     prometheus.Histogram
	codesHistogram    prometheus.Histogram
	failureCounter    prometheus.Counter
}

var (
	prometheusOracleInstance *PrometheusOracleMetrics
	prometheusOracleOnce     sync.Once
)

// getOrCreateHistogram gets an existing histogram or creates a new one if it doesn't exist
func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

// getOrCreateCounter gets an existing counter or creates a new one if it doesn't exist
func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

// NewPrometheusOracleMetrics creates the Prometheus-based metrics recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusOracleMetrics() *PrometheusOracleMetrics {
	prometheusOracleOnce.Do(func() {
		prometheusOracleInstance = &PrometheusOracleMetrics{
			durationHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "ruling_enrichment_duration_seconds",
				Help:    "Time taken for one enrichment Oracle API call",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
			tagsHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "ruling_enrichment_suggested_tags",
				Help:    "Number of tags proposed per Oracle call",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
			}),
			codesHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "ruling_enrichment_suggested_codes",
				Help:    "Number of related card codes proposed per Oracle call",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
			}),
			failureCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "ruling_enrichment_failures_total",
				Help: "Total number of Oracle calls that failed after retries",
			}),
		}
	})
	return prometheusOracleInstance
}

// RecordDuration implements OracleMetricsRecorder.RecordDuration
func (p *PrometheusOracleMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}

// RecordSuggestions implements OracleMetricsRecorder.RecordSuggestions
func (p *PrometheusOracleMetrics) RecordSuggestions(tags, relatedCodes int) {
	p.tagsHistogram.Observe(float64(tags))
	p.codesHistogram.Observe(float64(relatedCodes))
}

// RecordFailure implements OracleMetricsRecorder.RecordFailure
func (p *PrometheusOracleMetrics) RecordFailure() {
	p.failureCounter.Inc()
}
