package worker

import (
	"fmt"
	"log/slog"
	"time"

	"abyssal-tome/internal/pkg/config"
)

// WorkerConfig holds the configuration for the scheduled regeneration worker:
// when to run, how long a run may take, how wide the normalize/resolve pool
// is, and where the health endpoint listens.
//
// All fields have defaults and validation rules; LoadConfigFromEnv never
// fails, it falls back to defaults with a warning instead.
type WorkerConfig struct {
	// CronSchedule is the cron expression for corpus regeneration.
	// Format: "minute hour day month weekday"; default: "30 5 * * *".
	CronSchedule string

	// Timezone is the IANA timezone name the schedule is evaluated in.
	// Default: "UTC".
	Timezone string

	// RunTimeout is the maximum duration of a single regeneration run.
	// The run's context is cancelled after this timeout. Default: 30 minutes.
	RunTimeout time.Duration

	// Parallelism bounds the normalize/resolve worker pool.
	// Range: 1-64. Default: 8.
	Parallelism int

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults:
// a daily early-morning regeneration, a 30-minute run budget, and the
// standard exporter-range health port.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "30 5 * * *",
		Timezone:     "UTC",
		RunTimeout:   30 * time.Minute,
		Parallelism:  8,
		HealthPort:   9091,
	}
}

// Validate checks every field and returns all violations together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errors = append(errors, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.Parallelism, 1, 64); err != nil {
		errors = append(errors, fmt.Errorf("parallelism: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to defaults on failure (fail-open:
// a bad value logs a warning and records a metric, never aborts startup).
//
// Environment variables:
//   - REGEN_SCHEDULE: Cron expression (default: "30 5 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - REGEN_TIMEOUT: Duration string, e.g. "30m" (range 1m-4h)
//   - PIPELINE_PARALLELISM: Integer 1-64 (default: 8)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("REGEN_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		warn("cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		warn("timezone", result.Warnings)
	}

	result = config.LoadEnvDuration("REGEN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		warn("run_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("PIPELINE_PARALLELISM", cfg.Parallelism, func(v int) error {
		return config.ValidateIntRange(v, 1, 64)
	})
	cfg.Parallelism = result.Value.(int)
	if result.FallbackApplied {
		warn("parallelism", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		warn("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// always a valid config (fail-open)
	return &cfg, nil
}
