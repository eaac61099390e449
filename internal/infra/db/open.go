// Package db opens, pools and migrates the corpus database.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// poolSettings is the connection pool shape applied at open time. The
// defaults suit one regeneration worker sharing the pool with ad-hoc search
// commands; the DB_* environment variables override them.
type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

func defaultPoolSettings() poolSettings {
	return poolSettings{
		maxOpen:     25,
		maxIdle:     10,
		maxLifetime: 1 * time.Hour,
		maxIdleTime: 30 * time.Minute,
	}
}

// poolSettingsFromEnv overlays DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME on the defaults. A value
// that does not parse, or is not positive, is ignored.
func poolSettingsFromEnv() poolSettings {
	settings := defaultPoolSettings()
	if v, ok := envPositiveInt("DB_MAX_OPEN_CONNS"); ok {
		settings.maxOpen = v
	}
	if v, ok := envPositiveInt("DB_MAX_IDLE_CONNS"); ok {
		settings.maxIdle = v
	}
	if v, ok := envPositiveDuration("DB_CONN_MAX_LIFETIME"); ok {
		settings.maxLifetime = v
	}
	if v, ok := envPositiveDuration("DB_CONN_MAX_IDLE_TIME"); ok {
		settings.maxIdleTime = v
	}
	return settings
}

func envPositiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func envPositiveDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Open connects to the corpus database named by DATABASE_URL, applies the
// pool settings and verifies the connection with a short ping. Any failure
// is fatal.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	settings := poolSettingsFromEnv()
	db.SetMaxOpenConns(settings.maxOpen)
	db.SetMaxIdleConns(settings.maxIdle)
	db.SetConnMaxLifetime(settings.maxLifetime)
	db.SetConnMaxIdleTime(settings.maxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", settings.maxOpen),
		slog.Int("max_idle_conns", settings.maxIdle),
		slog.Duration("conn_max_lifetime", settings.maxLifetime),
		slog.Duration("conn_max_idle_time", settings.maxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	return db
}
