// Package enrich runs the optional post-merge enrichment pass: an injectable
// Oracle proposes extra tags and related card codes for canonical rulings.
// Suggestions are strictly additive and failures never block the pipeline.
package enrich

import "context"

// OracleRequest carries one ruling's content to the Oracle.
type OracleRequest struct {
	RulingID     string
	CardCode     string
	Text         string
	Tags         []string
	RelatedCodes []string
}

// OracleSuggestion is the Oracle's proposed additions. Unknown or duplicate
// entries are tolerated; the service normalizes before applying.
type OracleSuggestion struct {
	Tags         []string
	RelatedCodes []string
}

// Oracle proposes enrichment for a single ruling. Implementations must be
// safe for concurrent use; the service calls Propose from a worker pool.
type Oracle interface {
	Propose(ctx context.Context, req OracleRequest) (OracleSuggestion, error)
}
