package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"abyssal-tome/internal/catalog"
	"abyssal-tome/internal/index"
	pgRepo "abyssal-tome/internal/infra/adapter/persistence/postgres"
	"abyssal-tome/internal/infra/db"
	"abyssal-tome/internal/infra/oracle"
	"abyssal-tome/internal/repository"
	"abyssal-tome/internal/usecase/enrich"
	"abyssal-tome/internal/usecase/merge"
	"abyssal-tome/internal/usecase/normalize"
	"abyssal-tome/internal/usecase/pipeline"
	"abyssal-tome/internal/usecase/resolve"
)

// buildPipeline wires the full regeneration pipeline: catalog-backed
// resolution, oracle enrichment and optional postgres persistence. The
// returned cleanup closes the database connection when one was opened.
func buildPipeline(logger *slog.Logger, store *index.Store) (*pipeline.Service, func(), error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		slog.String("path", catalogPath),
		slog.Int("entries", cat.Len()))

	enricher, err := createEnricher(logger)
	if err != nil {
		return nil, nil, err
	}

	repo, cleanup, err := openRepository(logger)
	if err != nil {
		return nil, nil, err
	}

	svc := pipeline.NewService(
		normalize.NewService(),
		resolve.NewResolver(cat),
		merge.NewService(),
		enricher,
		repo,
		store,
	)
	if n := envInt("PIPELINE_PARALLELISM", 0); n > 0 {
		svc = svc.WithParallelism(n)
	}
	return svc, cleanup, nil
}

// createEnricher selects the oracle via the ORACLE_TYPE environment variable
// ("noop" default, "claude", "openai") and wraps it in the bounded enrichment
// pool.
func createEnricher(logger *slog.Logger) (*enrich.Service, error) {
	kind := os.Getenv("ORACLE_TYPE")

	var apiKey string
	switch kind {
	case "claude":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when ORACLE_TYPE=claude")
		}
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when ORACLE_TYPE=openai")
		}
	}

	o, err := oracle.New(kind, apiKey)
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	logger.Info("oracle initialized", slog.String("type", orDefault(kind, "noop")))

	cfg := enrich.Config{
		Concurrency:   envInt("ORACLE_CONCURRENCY", 0),
		RatePerSecond: envFloat("ORACLE_RATE_PER_SECOND", 0),
	}
	if d := os.Getenv("ORACLE_CALL_TIMEOUT"); d != "" {
		if parsed, perr := time.ParseDuration(d); perr == nil {
			cfg.CallTimeout = parsed
		} else {
			logger.Warn("invalid ORACLE_CALL_TIMEOUT, using default",
				slog.String("value", d))
		}
	}
	return enrich.NewService(o, cfg), nil
}

// openRepository connects to postgres when DATABASE_URL is set and runs the
// schema migration. Without DATABASE_URL the pipeline runs in memory only.
func openRepository(logger *slog.Logger) (repository.RulingRepository, func(), error) {
	if os.Getenv("DATABASE_URL") == "" {
		logger.Info("DATABASE_URL not set, corpus persistence disabled")
		return nil, func() {}, nil
	}

	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		closeDB(logger, database)
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}

	cleanup := func() { closeDB(logger, database) }
	return pgRepo.NewRulingRepo(database), cleanup, nil
}

func closeDB(logger *slog.Logger, database *sql.DB) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", slog.Any("error", err))
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
