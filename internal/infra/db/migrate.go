package db

import (
	"database/sql"
)

// MigrateUp creates the ruling corpus schema. Every statement is idempotent
// so the worker can run it at startup on every deploy.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS rulings (
    id                 TEXT PRIMARY KEY,
    source_card_code   TEXT NOT NULL,
    related_card_codes JSONB NOT NULL DEFAULT '[]',
    ruling_type        VARCHAR(40) NOT NULL,
    raw_type           TEXT NOT NULL DEFAULT '',
    question           TEXT NOT NULL DEFAULT '',
    answer             TEXT NOT NULL DEFAULT '',
    body               TEXT NOT NULL DEFAULT '',
    provenance         JSONB NOT NULL,
    original_snippet   TEXT NOT NULL DEFAULT '',
    tags               JSONB NOT NULL DEFAULT '[]',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		// card-scoped lookup after a corpus reload
		`CREATE INDEX IF NOT EXISTS idx_rulings_source_card_code ON rulings(source_card_code)`,
		`CREATE INDEX IF NOT EXISTS idx_rulings_ruling_type ON rulings(ruling_type)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// GIN indexes over the JSONB columns speed up ad-hoc tag and related-code
	// queries. Ignore errors so restricted environments still migrate.
	jsonIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_rulings_tags_gin ON rulings USING gin(tags)`,
		`CREATE INDEX IF NOT EXISTS idx_rulings_related_gin ON rulings USING gin(related_card_codes)`,
	}
	for _, idx := range jsonIndexes {
		_, _ = db.Exec(idx)
	}

	return nil
}

// MigrateDown drops the ruling corpus schema.
// Use with caution: this deletes the persisted corpus.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_rulings_tags_gin`,
		`DROP INDEX IF EXISTS idx_rulings_related_gin`,
		`DROP INDEX IF EXISTS idx_rulings_ruling_type`,
		`DROP INDEX IF EXISTS idx_rulings_source_card_code`,
		`DROP TABLE IF EXISTS rulings`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
