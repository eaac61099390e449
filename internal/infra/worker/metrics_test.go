package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shared instance: promauto registers with the default registry, so the
// package's tests must not construct WorkerMetrics more than once.
var globalTestMetrics = NewWorkerMetrics()

func TestNewWorkerMetrics(t *testing.T) {
	m := globalTestMetrics

	require.NotNil(t, m)
	assert.NotNil(t, m.ConfigMetrics)
	assert.NotNil(t, m.RegenRunsTotal)
	assert.NotNil(t, m.RegenDurationSeconds)
	assert.NotNil(t, m.RegenUnitsProcessedTotal)
	assert.NotNil(t, m.RegenLastSuccessTimestamp)
}

func TestWorkerMetrics_Record(t *testing.T) {
	m := globalTestMetrics

	assert.NotPanics(t, func() {
		m.RecordJobRun("success")
		m.RecordJobRun("failure")
		m.RecordJobDuration(12.5)
		m.RecordUnitsProcessed(42)
		m.RecordUnitsProcessed(0)
		m.RecordLastSuccess()
	})
}

func TestWorkerMetrics_ConfigMetricsEmbedded(t *testing.T) {
	m := globalTestMetrics

	assert.NotPanics(t, func() {
		m.RecordValidationError("cron_schedule")
		m.RecordFallback("cron_schedule", "default")
		m.SetFallbackActive("", true)
		m.SetFallbackActive("", false)
		m.RecordLoadTimestamp()
	})
}
