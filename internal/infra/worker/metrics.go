package worker

import (
	"abyssal-tome/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the regeneration worker.
// It embeds the shared ConfigMetrics for configuration fallback monitoring
// and adds job-level metrics for scheduled corpus regenerations.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total
//   - worker_config_fallbacks_total
//   - worker_config_fallback_active
//
// Worker-specific metrics:
//   - worker_regen_runs_total: regeneration runs by status (success/failure)
//   - worker_regen_duration_seconds: duration histogram of regeneration runs
//   - worker_regen_units_processed_total: raw source units consumed per run
//   - worker_regen_last_success_timestamp: unix time of the last good run
type WorkerMetrics struct {
	*config.ConfigMetrics

	// RegenRunsTotal counts scheduled regeneration runs by status.
	RegenRunsTotal *prometheus.CounterVec

	// RegenDurationSeconds measures regeneration run duration.
	// Buckets cover 1s through 30m, the realistic range for a full rebuild.
	RegenDurationSeconds prometheus.Histogram

	// RegenUnitsProcessedTotal counts raw source units consumed across runs.
	RegenUnitsProcessedTotal prometheus.Counter

	// RegenLastSuccessTimestamp records the Unix time of the last successful run.
	RegenLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a WorkerMetrics instance. Metrics register with
// the default Prometheus registry via promauto at construction.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		RegenRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_regen_runs_total",
			Help: "Total number of scheduled regeneration runs by status (success/failure)",
		}, []string{"status"}),

		RegenDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_regen_duration_seconds",
			Help:    "Duration of scheduled regeneration runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		RegenUnitsProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_regen_units_processed_total",
			Help: "Total number of raw source units consumed across regeneration runs",
		}),

		RegenLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_regen_last_success_timestamp",
			Help: "Unix timestamp of the last successful regeneration run",
		}),
	}
}

// RecordJobRun increments the run counter for the given status
// ("success" or "failure").
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.RegenRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.RegenDurationSeconds.Observe(seconds)
}

// RecordUnitsProcessed adds the units consumed by one run to the total.
func (m *WorkerMetrics) RecordUnitsProcessed(count int) {
	m.RegenUnitsProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.RegenLastSuccessTimestamp.SetToCurrentTime()
}
