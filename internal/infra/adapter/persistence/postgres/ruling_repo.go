// Package postgres provides the PostgreSQL implementation of the ruling
// corpus repository. Structured fields (provenance, tags, related card codes)
// are stored as JSONB so the schema follows the entity without join tables.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/observability/metrics"
	"abyssal-tome/internal/repository"
	"abyssal-tome/internal/resilience/circuitbreaker"
)

// RulingRepo implements the RulingRepository interface using PostgreSQL.
// All database calls route through a circuit breaker so a dead database
// fails a regeneration run fast instead of stalling it.
type RulingRepo struct {
	breaker *circuitbreaker.DBCircuitBreaker
}

// NewRulingRepo creates a new PostgreSQL-backed ruling repository.
func NewRulingRepo(db *sql.DB) repository.RulingRepository {
	return &RulingRepo{breaker: circuitbreaker.NewDBCircuitBreaker(db)}
}

// recordPoolStats exports the pool's in-use and idle connection counts after
// each corpus operation, the only moments this process touches the database.
func (repo *RulingRepo) recordPoolStats() {
	stats := repo.breaker.DB().Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
}

// provenanceRecord is the JSONB wire form of entity.Provenance.
type provenanceRecord struct {
	SourceType  string    `json:"source_type"`
	SourceName  string    `json:"source_name,omitempty"`
	SourceDate  string    `json:"source_date,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
	SourceURL   string    `json:"source_url,omitempty"`
}

// ReplaceAll swaps the stored corpus for the given rulings inside a single
// transaction. The previous corpus stays visible until the commit, so readers
// never observe a half-written state.
func (repo *RulingRepo) ReplaceAll(ctx context.Context, rulings []*entity.Ruling) error {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("replace_corpus", time.Since(start))
		repo.recordPoolStats()
	}()

	tx, err := repo.breaker.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rulings`); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	const insert = `
INSERT INTO rulings (
    id, source_card_code, related_card_codes, ruling_type, raw_type,
    question, answer, body, provenance, original_snippet, tags
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

	for _, r := range rulings {
		related, provenance, tags, err := marshalRulingFields(r)
		if err != nil {
			return fmt.Errorf("ReplaceAll: ruling %q: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, insert,
			r.ID, r.SourceCardCode, related, string(r.Type), r.RawType,
			r.Question, r.Answer, r.Text, provenance, r.OriginalSnippet, tags,
		)
		if err != nil {
			return fmt.Errorf("ReplaceAll: insert %q: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: Commit: %w", err)
	}
	return nil
}

// LoadAll retrieves the stored corpus ordered by ruling ID.
func (repo *RulingRepo) LoadAll(ctx context.Context) ([]*entity.Ruling, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("load_corpus", time.Since(start))
		repo.recordPoolStats()
	}()

	const query = `
SELECT id, source_card_code, related_card_codes, ruling_type, raw_type,
       question, answer, body, provenance, original_snippet, tags
FROM rulings
ORDER BY id
`

	rows, err := repo.breaker.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("LoadAll: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rulings := make([]*entity.Ruling, 0, 100)
	for rows.Next() {
		var r entity.Ruling
		var rulingType string
		var related, provenance, tags []byte
		err := rows.Scan(&r.ID,
			&r.SourceCardCode, &related,
			&rulingType, &r.RawType,
			&r.Question, &r.Answer, &r.Text,
			&provenance, &r.OriginalSnippet, &tags)
		if err != nil {
			return nil, fmt.Errorf("LoadAll: Scan: %w", err)
		}
		r.Type = entity.RulingType(rulingType)
		if err := unmarshalRulingFields(&r, related, provenance, tags); err != nil {
			return nil, fmt.Errorf("LoadAll: ruling %q: %w", r.ID, err)
		}
		rulings = append(rulings, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadAll: rows.Err: %w", err)
	}

	return rulings, nil
}

func marshalRulingFields(r *entity.Ruling) (related, provenance, tags []byte, err error) {
	related, err = json.Marshal(emptyAsList(r.RelatedCardCodes))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal related codes: %w", err)
	}

	records := make([]provenanceRecord, 0, len(r.Provenance))
	for _, p := range r.Provenance {
		records = append(records, provenanceRecord{
			SourceType:  p.SourceType,
			SourceName:  p.SourceName,
			SourceDate:  p.SourceDate,
			RetrievedAt: p.RetrievedAt,
			SourceURL:   p.SourceURL,
		})
	}
	provenance, err = json.Marshal(records)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal provenance: %w", err)
	}

	tags, err = json.Marshal(emptyAsList(r.Tags))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	return related, provenance, tags, nil
}

func unmarshalRulingFields(r *entity.Ruling, related, provenance, tags []byte) error {
	if err := json.Unmarshal(related, &r.RelatedCardCodes); err != nil {
		return fmt.Errorf("unmarshal related codes: %w", err)
	}

	var records []provenanceRecord
	if err := json.Unmarshal(provenance, &records); err != nil {
		return fmt.Errorf("unmarshal provenance: %w", err)
	}
	r.Provenance = make([]entity.Provenance, 0, len(records))
	for _, rec := range records {
		r.Provenance = append(r.Provenance, entity.Provenance{
			SourceType:  rec.SourceType,
			SourceName:  rec.SourceName,
			SourceDate:  rec.SourceDate,
			RetrievedAt: rec.RetrievedAt,
			SourceURL:   rec.SourceURL,
		})
	}

	if err := json.Unmarshal(tags, &r.Tags); err != nil {
		return fmt.Errorf("unmarshal tags: %w", err)
	}
	return nil
}

// emptyAsList keeps nil slices serializing as [] rather than null.
func emptyAsList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
