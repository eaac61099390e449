// Package text provides utilities for text processing and analysis shared by
// the normalizer, the merge similarity scoring, the search index and the
// enrichment oracle adapters.
package text

// CountRunes counts the number of Unicode characters (runes) in the given
// text. Ruling text routinely contains typographic quotes and game symbols,
// so counting runes instead of bytes keeps oracle prompt budgets honest.
func CountRunes(text string) int {
	return len([]rune(text))
}
