package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"abyssal-tome/internal/index"
	"abyssal-tome/internal/infra/manifest"
	workerPkg "abyssal-tome/internal/infra/worker"
	"abyssal-tome/internal/observability/logging"
	"abyssal-tome/internal/usecase/pipeline"
)

// newScheduleCmd runs regenerations on a cron schedule with health and
// metrics endpoints. The first regeneration runs immediately; readiness flips
// once it publishes a snapshot.
func newScheduleCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "regenerate the corpus periodically with health and metrics servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			workerMetrics := workerPkg.NewWorkerMetrics()
			workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
			if err != nil {
				return fmt.Errorf("load worker configuration: %w", err)
			}
			logger.Info("worker configuration loaded",
				slog.String("cron_schedule", workerConfig.CronSchedule),
				slog.String("timezone", workerConfig.Timezone),
				slog.Duration("run_timeout", workerConfig.RunTimeout),
				slog.Int("parallelism", workerConfig.Parallelism),
				slog.Int("health_port", workerConfig.HealthPort))

			store := index.NewStore()
			svc, cleanup, err := buildPipeline(logger, store)
			if err != nil {
				return err
			}
			defer cleanup()
			svc = svc.WithParallelism(workerConfig.Parallelism)

			startMetricsServer(ctx, logger)

			healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
			healthServer := workerPkg.NewHealthServer(healthAddr, logger)
			go func() {
				if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
					logger.Error("health server failed", slog.Any("error", err))
				}
			}()
			logger.Info("health check server started", slog.String("addr", healthAddr))

			job := func() {
				runRegenJob(ctx, logger, svc, workerConfig, workerMetrics, healthServer)
			}

			// first build before the schedule kicks in, so readiness does
			// not wait for the next cron tick
			job()

			return startCron(ctx, logger, workerConfig, job)
		},
	}
}

// startCron registers the regeneration job and blocks until the context is
// cancelled.
func startCron(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, job func()) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.CronSchedule, job); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()
	logger.Info("scheduler started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("scheduler shutting down")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// runRegenJob executes a single regeneration with timeout and metrics.
func runRegenJob(
	ctx context.Context,
	logger *slog.Logger,
	svc *pipeline.Service,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	startTime := time.Now()
	runLogger, _ := logging.WithRunID(logger)
	runLogger.Info("regeneration started")

	units, err := manifest.Load(manifestPath)
	if err != nil {
		runLogger.Error("manifest load failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	stats, err := svc.Run(runCtx, units)
	if err != nil {
		runLogger.Error("regeneration failed", slog.Any("error", err))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(startTime).Seconds())
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	metrics.RecordUnitsProcessed(stats.Units)
	metrics.RecordLastSuccess()
	healthServer.SetReady(true)

	runLogger.Info("regeneration completed",
		slog.Int("units", stats.Units),
		slog.Int("parse_defects", stats.ParseDefects),
		slog.Int("rulings", stats.Rulings),
		slog.Int("enrich_applied", stats.EnrichApplied),
		slog.Int("enrich_errors", stats.EnrichErrors),
		slog.Int("indexed_tokens", stats.IndexedTokens),
		slog.Bool("persist_failed", stats.PersistFailed),
		slog.Duration("duration", stats.Duration))
}
