// Package resolve implements card-mention resolution: finding candidate card
// name spans in free text and mapping each to zero or more canonical card
// codes with a confidence score.
//
// Resolution is two-tier: an exact alias pass keeps the common case cheap and
// certain, and a phonetic-key pass reserves approximate matching for spans
// that only sound like a catalog name. Ties are preserved, never broken
// silently.
package resolve

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"abyssal-tome/internal/catalog"
	"abyssal-tome/internal/domain/entity"
)

const (
	// ConfidenceFloor discards candidates scored below it.
	ConfidenceFloor = 0.6
	// TieMargin keeps every candidate within this distance of the best one
	// for a span: ambiguity is surfaced, not resolved arbitrarily.
	TieMargin = 0.05
)

// Resolver resolves free text against an immutable card catalog. It is safe
// for concurrent use: all state is built at construction and read-only after.
type Resolver struct {
	cat      *catalog.Catalog
	phonetic map[string][]catalog.NameRef // phonetic key -> names sharing it
}

// NewResolver builds a resolver over the given catalog, precomputing the
// phonetic key index for every known name and alias.
func NewResolver(cat *catalog.Catalog) *Resolver {
	r := &Resolver{
		cat:      cat,
		phonetic: make(map[string][]catalog.NameRef),
	}
	for _, ref := range cat.Names() {
		key := PhoneticKey(ref.Name)
		if key == "" {
			continue
		}
		r.phonetic[key] = append(r.phonetic[key], ref)
	}
	return r
}

// Resolve returns the card candidates found in text, sorted by code
// ascending. Given identical catalog state and text the output is identical.
func (r *Resolver) Resolve(text string) []entity.CardCandidate {
	if text == "" {
		return nil
	}

	best := make(map[string]float64) // code -> best confidence

	// Tier 1: exact name/alias substring matches, confidence 1.0.
	lower := strings.ToLower(text)
	for _, ref := range r.cat.Names() {
		if containsWord(lower, strings.ToLower(ref.Name)) {
			best[ref.Code] = 1.0
		}
	}

	// Tier 2: phonetic candidates for capitalized-word spans.
	for _, span := range capitalizedSpans(text) {
		for _, cand := range r.resolveSpan(span) {
			if cand.Confidence > best[cand.Code] {
				best[cand.Code] = cand.Confidence
			}
		}
	}

	if len(best) == 0 {
		return nil
	}
	out := make([]entity.CardCandidate, 0, len(best))
	for code, conf := range best {
		out = append(out, entity.CardCandidate{Code: code, Confidence: conf})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// resolveSpan scores one span against catalog names sharing its phonetic key
// and returns the best candidate plus every tie within TieMargin of it.
func (r *Resolver) resolveSpan(span string) []entity.CardCandidate {
	key := PhoneticKey(span)
	if key == "" {
		return nil
	}
	refs, ok := r.phonetic[key]
	if !ok {
		return nil
	}

	type scored struct {
		code string
		conf float64
	}
	scoredRefs := make([]scored, 0, len(refs))
	bestConf := 0.0
	lowerSpan := strings.ToLower(span)

	for _, ref := range refs {
		conf := similarity(lowerSpan, strings.ToLower(ref.Name))
		if conf < ConfidenceFloor {
			continue
		}
		scoredRefs = append(scoredRefs, scored{code: ref.Code, conf: conf})
		if conf > bestConf {
			bestConf = conf
		}
	}

	out := make([]entity.CardCandidate, 0, len(scoredRefs))
	for _, s := range scoredRefs {
		if bestConf-s.conf <= TieMargin {
			out = append(out, entity.CardCandidate{Code: s.code, Confidence: s.conf})
		}
	}
	return out
}

// similarity is the normalized edit-distance similarity 1 − dist/maxLen.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// capitalizedSpans extracts contiguous runs of capitalized words, the shape
// card names take in prose. Runs are returned in document order; duplicates
// are harmless because candidates are merged by max confidence.
func capitalizedSpans(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '.'
	})

	var spans []string
	var run []string
	flush := func() {
		if len(run) > 0 {
			spans = append(spans, strings.Join(run, " "))
			run = nil
		}
	}
	for _, w := range words {
		first := []rune(w)[0]
		if unicode.IsUpper(first) {
			run = append(run, strings.Trim(w, "'."))
		} else {
			flush()
		}
	}
	flush()
	return spans
}

// containsWord reports whether needle occurs in haystack on word boundaries.
// Both arguments must already be lowercased.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(needle)
		leftOK := start == 0 || !isWordRune(rune(haystack[start-1]))
		rightOK := end == len(haystack) || !isWordRune(rune(haystack[end]))
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
