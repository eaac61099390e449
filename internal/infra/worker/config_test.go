package worker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "30 5 * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, 9091, cfg.HealthPort)

	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *WorkerConfig) {},
			wantErr: false,
		},
		{
			name:    "invalid cron schedule",
			mutate:  func(c *WorkerConfig) { c.CronSchedule = "not a schedule" },
			wantErr: true,
		},
		{
			name:    "invalid timezone",
			mutate:  func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "zero run timeout",
			mutate:  func(c *WorkerConfig) { c.RunTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "parallelism too small",
			mutate:  func(c *WorkerConfig) { c.Parallelism = 0 },
			wantErr: true,
		},
		{
			name:    "parallelism too large",
			mutate:  func(c *WorkerConfig) { c.Parallelism = 128 },
			wantErr: true,
		},
		{
			name:    "privileged health port",
			mutate:  func(c *WorkerConfig) { c.HealthPort = 80 },
			wantErr: true,
		},
		{
			name: "multiple violations reported together",
			mutate: func(c *WorkerConfig) {
				c.CronSchedule = "bad"
				c.Parallelism = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("REGEN_SCHEDULE", "")
	t.Setenv("WORKER_TIMEZONE", "")
	t.Setenv("REGEN_TIMEOUT", "")
	t.Setenv("PIPELINE_PARALLELISM", "")
	t.Setenv("WORKER_HEALTH_PORT", "")

	cfg, err := LoadConfigFromEnv(slog.Default(), globalTestMetrics)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("REGEN_SCHEDULE", "0 */6 * * *")
	t.Setenv("WORKER_TIMEZONE", "America/New_York")
	t.Setenv("REGEN_TIMEOUT", "45m")
	t.Setenv("PIPELINE_PARALLELISM", "16")
	t.Setenv("WORKER_HEALTH_PORT", "9191")

	cfg, err := LoadConfigFromEnv(slog.Default(), globalTestMetrics)
	require.NoError(t, err)

	assert.Equal(t, "0 */6 * * *", cfg.CronSchedule)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, 45*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 16, cfg.Parallelism)
	assert.Equal(t, 9191, cfg.HealthPort)
}

func TestLoadConfigFromEnv_FailOpenOnInvalidValues(t *testing.T) {
	t.Setenv("REGEN_SCHEDULE", "every full moon")
	t.Setenv("WORKER_TIMEZONE", "Mars/Olympus")
	t.Setenv("REGEN_TIMEOUT", "10h") // above the 4h ceiling
	t.Setenv("PIPELINE_PARALLELISM", "-3")
	t.Setenv("WORKER_HEALTH_PORT", "99999")

	// never errors: every invalid value falls back to its default
	cfg, err := LoadConfigFromEnv(slog.Default(), globalTestMetrics)
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), *cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_PartialFallback(t *testing.T) {
	t.Setenv("REGEN_SCHEDULE", "15 3 * * *")
	t.Setenv("PIPELINE_PARALLELISM", "not-a-number")

	cfg, err := LoadConfigFromEnv(slog.Default(), globalTestMetrics)
	require.NoError(t, err)

	assert.Equal(t, "15 3 * * *", cfg.CronSchedule)
	assert.Equal(t, DefaultConfig().Parallelism, cfg.Parallelism)
}
