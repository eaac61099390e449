package repository

import (
	"context"

	"abyssal-tome/internal/domain/entity"
)

// RulingRepository persists the canonical ruling corpus. The pipeline never
// mutates stored rows in place: a regeneration run replaces the whole corpus
// in one transaction, and startup loads it back to seed identity continuity.
type RulingRepository interface {
	// ReplaceAll atomically swaps the stored corpus for the given rulings.
	// Either every ruling is persisted or none are.
	ReplaceAll(ctx context.Context, rulings []*entity.Ruling) error
	// LoadAll returns the stored corpus ordered by ruling ID.
	LoadAll(ctx context.Context) ([]*entity.Ruling, error)
}
