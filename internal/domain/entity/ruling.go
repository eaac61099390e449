// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as Ruling,
// RulingDraft and Provenance, along with their validation rules and
// domain-specific errors.
package entity

import (
	"time"
)

// GeneralCardCode is the sentinel primary card code for rulings that apply to
// the game in general rather than to a specific card.
const GeneralCardCode = "general"

// RulingType classifies a ruling. The vocabulary in source material is open
// ended, so unrecognized labels are carried as TypeOther with the original
// label preserved (see Ruling.RawType).
type RulingType string

const (
	TypeErrata         RulingType = "errata"
	TypeQuestionAnswer RulingType = "question_answer"
	TypeClarification  RulingType = "clarification"
	TypeNote           RulingType = "note"
	TypeUpdate         RulingType = "update"
	TypeAsIf           RulingType = "as_if"
	TypeAutoResult     RulingType = "auto_success_failure"
	TypeOther          RulingType = "other"
)

// ParseRulingType maps a source label (case-insensitive, colon stripped) to a
// RulingType. Unknown labels yield (TypeOther, false) so the caller can retain
// the raw label.
func ParseRulingType(label string) (RulingType, bool) {
	switch normalizeLabel(label) {
	case "errata":
		return TypeErrata, true
	case "q", "question", "follow-up q", "follow up q":
		return TypeQuestionAnswer, true
	case "clarification":
		return TypeClarification, true
	case "note", "addendum":
		return TypeNote, true
	case "update":
		return TypeUpdate, true
	case `"as if"`, "as if":
		return TypeAsIf, true
	case "automatic success/failure", "automatic success/failure & automatic evasion":
		return TypeAutoResult, true
	}
	return TypeOther, false
}

// Ruling is the canonical, persisted record describing one clarification of a
// game rule. It is produced by merging one or more drafts and is immutable
// afterwards except for additive enrichment of Tags and RelatedCardCodes.
type Ruling struct {
	ID               string
	SourceCardCode   string
	RelatedCardCodes []string
	Type             RulingType
	RawType          string // original label when Type == TypeOther
	Question         string
	Answer           string
	Text             string
	Provenance       []Provenance // oldest-first
	OriginalSnippet  string       // raw snippet from the first-seen source
	Tags             []string
}

// Validate checks the structural invariants of a canonical ruling:
// a stable identifier, a primary card code (possibly the general sentinel),
// at least one provenance record, and exactly one of (question/answer pair,
// body text) populated.
func (r *Ruling) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.SourceCardCode == "" {
		return ErrMissingCardCode
	}
	if len(r.Provenance) == 0 {
		return ErrMissingProvenance
	}
	hasQA := r.Question != "" || r.Answer != ""
	hasText := r.Text != ""
	if hasQA == hasText {
		return ErrAmbiguousContent
	}
	return nil
}

// ContentText returns the searchable text of the ruling: the concatenated
// question and answer, or the body text, depending on which is populated.
func (r *Ruling) ContentText() string {
	if r.Text != "" {
		return r.Text
	}
	if r.Answer == "" {
		return r.Question
	}
	return r.Question + " " + r.Answer
}

// NewestRetrievedAt returns the most recent retrieval timestamp across the
// ruling's provenance records. Used for recency tie-breaking in search.
func (r *Ruling) NewestRetrievedAt() time.Time {
	var newest time.Time
	for _, p := range r.Provenance {
		if p.RetrievedAt.After(newest) {
			newest = p.RetrievedAt
		}
	}
	return newest
}

// Provenance records where, when and by whom one contribution to a ruling
// originated. RetrievedAt is always set (generation time); the remaining
// optional fields depend on what the source exposes.
type Provenance struct {
	SourceType  string
	SourceName  string
	SourceDate  string
	RetrievedAt time.Time
	SourceURL   string
}

// Key returns the identity of a provenance record for deduplication.
// Two records with the same (source_type, source_name, source_url) are the
// same contribution even when retrieved at different times.
func (p Provenance) Key() string {
	return p.SourceType + "\x1f" + p.SourceName + "\x1f" + p.SourceURL
}

func normalizeLabel(label string) string {
	out := make([]byte, 0, len(label))
	pendingSpace := false
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		switch c {
		case ':':
			// colons are decoration on source labels
		case ' ', '\t':
			// runs of whitespace collapse; leading whitespace drops
			pendingSpace = len(out) > 0
		default:
			if pendingSpace {
				out = append(out, ' ')
				pendingSpace = false
			}
			out = append(out, c)
		}
	}
	return string(out)
}
