package oracle

import (
	"context"

	"abyssal-tome/internal/usecase/enrich"
)

// NoOp is an Oracle that proposes nothing. It is the default when enrichment
// is disabled and keeps the pipeline wiring uniform.
type NoOp struct{}

// NewNoOp creates a new NoOp Oracle.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Propose returns an empty suggestion.
func (n *NoOp) Propose(_ context.Context, _ enrich.OracleRequest) (enrich.OracleSuggestion, error) {
	return enrich.OracleSuggestion{}, nil
}
