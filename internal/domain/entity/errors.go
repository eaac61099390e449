package entity

import (
	"errors"
)

// Sentinel errors for ruling validation.
var (
	// ErrMissingID indicates a canonical ruling without a stable identifier
	ErrMissingID = errors.New("ruling missing identifier")

	// ErrMissingCardCode indicates a ruling without a primary card code
	ErrMissingCardCode = errors.New("ruling missing primary card code")

	// ErrMissingProvenance indicates a ruling with no provenance records
	ErrMissingProvenance = errors.New("ruling missing provenance")

	// ErrAmbiguousContent indicates a ruling that violates the
	// question/answer-XOR-text invariant
	ErrAmbiguousContent = errors.New("ruling must populate exactly one of question/answer or text")
)
