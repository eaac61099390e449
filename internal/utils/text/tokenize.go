package text

import (
	"strings"
	"unicode"
)

// stopwords excluded from index tokens and overlap scoring. Small closed set;
// game terminology ("action", "phase") is deliberately kept.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "if": {}, "in": {}, "is": {}, "it": {}, "its": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {},
	"to": {}, "was": {}, "when": {}, "will": {}, "with": {}, "would": {},
	"you": {}, "your": {},
}

// IsStopword reports whether a lowercased token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Tokenize splits text into normalized index tokens: lowercased, punctuation
// stripped, stopwords and single-rune fragments removed. The same function is
// used for indexing and for query parsing so lookups stay symmetric.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.ToLower(f)
		if len([]rune(tok)) < 2 {
			continue
		}
		if IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// OverlapRatio computes the Jaccard overlap of the token sets of a and b.
// Returns 1.0 when both are empty: two contentless fragments are identical.
func OverlapRatio(a, b string) float64 {
	sa, sb := TokenSet(a), TokenSet(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	inter := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}

// Squash collapses runs of whitespace into single spaces and trims the ends.
// Used before similarity scoring so wording drift in spacing does not count.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
