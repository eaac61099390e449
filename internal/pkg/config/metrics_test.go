package config

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shared instance: promauto registers with the default registry, so this
// package's tests must construct ConfigMetrics exactly once.
var testMetrics = NewConfigMetrics("configtest")

func TestNewConfigMetrics(t *testing.T) {
	require.NotNil(t, testMetrics)
	assert.NotNil(t, testMetrics.LoadTimestamp)
	assert.NotNil(t, testMetrics.ValidationErrorsTotal)
	assert.NotNil(t, testMetrics.FallbacksTotal)
	assert.NotNil(t, testMetrics.FallbackActive)
	assert.Equal(t, "configtest", testMetrics.componentName)
}

func TestConfigMetrics_RecordValidationError(t *testing.T) {
	counter := testMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")
	before := testutil.ToFloat64(counter)

	testMetrics.RecordValidationError("cron_schedule")
	testMetrics.RecordValidationError("cron_schedule")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestConfigMetrics_RecordValidationErrorKeepsFieldsApart(t *testing.T) {
	schedule := testMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")
	timezone := testMetrics.ValidationErrorsTotal.WithLabelValues("timezone")
	scheduleBefore := testutil.ToFloat64(schedule)
	timezoneBefore := testutil.ToFloat64(timezone)

	testMetrics.RecordValidationError("timezone")

	assert.Equal(t, scheduleBefore, testutil.ToFloat64(schedule))
	assert.Equal(t, timezoneBefore+1, testutil.ToFloat64(timezone))
}

func TestConfigMetrics_RecordFallback(t *testing.T) {
	counter := testMetrics.FallbacksTotal.WithLabelValues("run_timeout")
	before := testutil.ToFloat64(counter)

	testMetrics.RecordFallback("run_timeout", "default")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestConfigMetrics_FallbackActiveGauge(t *testing.T) {
	testMetrics.SetFallbackActive("", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(testMetrics.FallbackActive))

	testMetrics.SetFallbackActive("", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(testMetrics.FallbackActive))
}

func TestConfigMetrics_RecordLoadTimestamp(t *testing.T) {
	testMetrics.RecordLoadTimestamp()

	got := testutil.ToFloat64(testMetrics.LoadTimestamp)
	assert.InDelta(t, float64(time.Now().Unix()), got, 5)
}
