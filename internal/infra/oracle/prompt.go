package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"abyssal-tome/internal/usecase/enrich"
	"abyssal-tome/internal/utils/text"
)

// maxPromptRunes bounds the ruling text sent per call, measured in runes so
// a cut never lands inside a multi-byte character. Rulings are short;
// anything longer is almost certainly a parsing artifact.
const maxPromptRunes = 10000

// buildPrompt constructs the enrichment prompt for one ruling.
func buildPrompt(req enrich.OracleRequest, maxSuggestions int) string {
	body := req.Text
	if text.CountRunes(body) > maxPromptRunes {
		body = string([]rune(body)[:maxPromptRunes]) + "..."
	}

	var b strings.Builder
	b.WriteString("You are annotating a rules clarification for a card game database.\n")
	fmt.Fprintf(&b, "Propose up to %d topic tags (lowercase snake_case) and up to %d related card codes (5-digit strings) for the ruling below.\n", maxSuggestions, maxSuggestions)
	b.WriteString("Only include card codes you are certain are referenced. Do not repeat the ruling's own card code.\n")
	b.WriteString(`Respond with a JSON object only, in the form {"tags": [...], "related_codes": [...]}.` + "\n\n")
	if req.CardCode != "" {
		fmt.Fprintf(&b, "Card code: %s\n", req.CardCode)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&b, "Existing tags: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&b, "Ruling: %s\n", body)
	return b.String()
}

// parseSuggestion decodes a model response into a suggestion. Code fences
// around the JSON are tolerated; anything else is an error the caller counts
// as an enrichment failure.
func parseSuggestion(raw string) (enrich.OracleSuggestion, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var decoded struct {
		Tags         []string `json:"tags"`
		RelatedCodes []string `json:"related_codes"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return enrich.OracleSuggestion{}, fmt.Errorf("unparseable oracle response: %w", err)
	}
	return enrich.OracleSuggestion{
		Tags:         decoded.Tags,
		RelatedCodes: decoded.RelatedCodes,
	}, nil
}

// capSuggestion trims an oversized suggestion to the configured limit.
func capSuggestion(sug enrich.OracleSuggestion, limit int) enrich.OracleSuggestion {
	if limit > 0 && len(sug.Tags) > limit {
		sug.Tags = sug.Tags[:limit]
	}
	if limit > 0 && len(sug.RelatedCodes) > limit {
		sug.RelatedCodes = sug.RelatedCodes[:limit]
	}
	return sug
}
