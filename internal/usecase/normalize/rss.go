package normalize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"abyssal-tome/internal/domain/entity"
)

// normalizeRSS parses an already-retrieved feed payload and routes each item's
// content through the free-text path. Item metadata overrides the unit-level
// provenance so every draft points back at its entry, not the feed.
func (s *Service) normalizeRSS(unit entity.RawSourceUnit) ([]entity.RulingDraft, error) {
	feed, err := gofeed.NewParser().ParseString(unit.Payload)
	if err != nil {
		return nil, fmt.Errorf("parse feed payload: %w", err)
	}

	var drafts []entity.RulingDraft
	for _, it := range feed.Items {
		content := it.Content
		if content == "" {
			content = it.Description
		}
		if content == "" {
			continue
		}

		prov := baseProvenance(unit)
		if it.Title != "" {
			prov.SourceName = it.Title
		}
		if it.Link != "" {
			prov.SourceURL = it.Link
		}
		if it.PublishedParsed != nil {
			prov.SourceDate = it.PublishedParsed.Format("2006-01-02")
		}

		drafts = append(drafts, s.normalizeText(stripMarkup(content), prov, unit)...)
	}
	return drafts, nil
}

// stripMarkup flattens feed entry markup to plain text. Feed content is
// frequently HTML even when the description claims otherwise.
func stripMarkup(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	// keep block boundaries as line breaks so labels stay line-leading
	var b strings.Builder
	doc.Find("p, li, br").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "br" {
			return
		}
		b.WriteString(strings.TrimSpace(sel.Text()))
		b.WriteString("\n")
	})
	if b.Len() > 0 {
		return b.String()
	}
	return doc.Text()
}
