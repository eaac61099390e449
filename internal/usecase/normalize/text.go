package normalize

import (
	"regexp"
	"strings"

	"abyssal-tome/internal/domain/entity"
)

// textLabelRe matches a leading fragment label on a line, e.g. "Q:", "A:",
// "Errata:" or "Follow-up Q:".
var textLabelRe = regexp.MustCompile(`(?i)^\s*(q|a|question|answer|errata|update|clarification|note|addendum|follow[- ]up q)\s*:\s*`)

// normalizeText parses a free-form text blob. Lines carrying a leading label
// start a new fragment; blank lines close the current one; everything else is
// continuation. The resulting fragments feed the shared segment pairing.
func (s *Service) normalizeText(content string, prov entity.Provenance, unit entity.RawSourceUnit) []entity.RulingDraft {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var segs []segment
	cur := segment{}
	open := false
	flush := func() {
		if open && (cur.label != "" || strings.TrimSpace(cur.text) != "") {
			segs = append(segs, cur)
		}
		cur = segment{}
		open = false
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if loc := textLabelRe.FindStringSubmatchIndex(trimmed); loc != nil {
			flush()
			cur.label = trimmed[loc[2]:loc[3]]
			cur.text = trimmed[loc[1]:]
			open = true
			continue
		}
		if cur.text != "" {
			cur.text += " "
		}
		cur.text += trimmed
		open = true
	}
	flush()

	related := harvestCardCodes(content)
	return buildDrafts(segs, unit, prov, related, content)
}
