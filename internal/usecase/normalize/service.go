// Package normalize converts raw source units into ruling drafts. Each unit
// kind has its own parsing path (structured HTML exports, free-form text,
// syndicated feed payloads); all paths converge on the same labeled-segment
// pairing logic so draft shapes do not depend on the source format.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/utils/text"
)

// Stats summarizes one normalization pass over a unit batch.
type Stats struct {
	Units        int
	Drafts       int
	ParseDefects int
}

// Service normalizes raw units into drafts. Stateless and safe for concurrent
// use.
type Service struct{}

// NewService creates a normalizer.
func NewService() *Service {
	return &Service{}
}

// Normalize converts one unit into zero or more drafts. A payload that cannot
// be parsed at all returns an error; a parseable payload yielding no drafts
// returns an empty slice and the caller records the parse defect. Repeated
// calls on the same unit produce identical drafts.
func (s *Service) Normalize(unit entity.RawSourceUnit) ([]entity.RulingDraft, error) {
	switch unit.Kind {
	case entity.RawKindHTML:
		return s.normalizeHTML(unit)
	case entity.RawKindText:
		return s.normalizeText(unit.Payload, baseProvenance(unit), unit), nil
	case entity.RawKindRSS:
		return s.normalizeRSS(unit)
	default:
		return nil, fmt.Errorf("normalize: unknown unit kind %q", unit.Kind)
	}
}

func baseProvenance(unit entity.RawSourceUnit) entity.Provenance {
	return entity.Provenance{
		SourceType:  string(unit.Kind),
		SourceName:  unit.SourceName,
		SourceDate:  unit.SourceDate,
		SourceURL:   unit.Origin,
		RetrievedAt: unit.RetrievedAt,
	}
}

// segment is one labeled fragment of a unit. An empty label means plain prose.
type segment struct {
	label string
	text  string
}

// cardLinkRe harvests canonical card codes from markup links and inline URLs.
var cardLinkRe = regexp.MustCompile(`/card/(\d{5})`)

func harvestCardCodes(s string) []string {
	matches := cardLinkRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var codes []string
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		codes = append(codes, m[1])
	}
	return codes
}

func labelKey(label string) string {
	k := strings.ToLower(strings.TrimSpace(label))
	k = strings.TrimSuffix(k, ":")
	return strings.TrimSpace(k)
}

func isQuestionLabel(key string) bool {
	switch key {
	case "q", "question", "follow-up q", "follow up q":
		return true
	}
	return false
}

func isAnswerLabel(key string) bool {
	return key == "a" || key == "answer"
}

// buildDrafts turns an ordered segment list into drafts. A question segment
// holds until the next segment supplies its answer; an answer label or any
// other labeled segment closes the pair. A question still open at the end of
// the unit yields no draft. Label-free prose becomes a clarification;
// unrecognized labels are carried as-is on an "other" draft.
func buildDrafts(segs []segment, unit entity.RawSourceUnit, prov entity.Provenance, related []string, snippet string) []entity.RulingDraft {
	var out []entity.RulingDraft
	pendingQ := ""

	emit := func(d entity.RulingDraft) {
		d.SourceCardCode = unit.CardCode
		d.Provenance = prov
		d.RelatedCodes = related
		d.OriginalSnippet = snippet
		d.Supersedes = unit.Supersedes
		out = append(out, d)
	}

	for _, seg := range segs {
		body := text.Squash(seg.text)
		key := labelKey(seg.label)

		switch {
		case isQuestionLabel(key):
			// a question without an answer never becomes a draft; a second
			// question replaces an unanswered first
			pendingQ = body
		case isAnswerLabel(key):
			emit(entity.RulingDraft{Type: entity.TypeQuestionAnswer, Question: pendingQ, Answer: body})
			pendingQ = ""
		case pendingQ != "":
			// any labeled segment after an open question supplies its answer
			emit(entity.RulingDraft{Type: entity.TypeQuestionAnswer, Question: pendingQ, Answer: body})
			pendingQ = ""
		case key != "":
			if body == "" {
				continue
			}
			typ, known := entity.ParseRulingType(seg.label)
			d := entity.RulingDraft{Type: typ, Text: body}
			if !known {
				d.RawType = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(seg.label), ":"))
			}
			emit(d)
		default:
			if body == "" {
				continue
			}
			emit(entity.RulingDraft{Type: entity.TypeClarification, Text: body})
		}
	}

	return out
}
