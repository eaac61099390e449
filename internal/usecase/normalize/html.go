package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"abyssal-tome/internal/domain/entity"
)

// faqVersionRe matches the version stamp rules documents carry inline, e.g.
// "FAQ, v.2.0, August 2023". When present it becomes the provenance source
// name so two FAQ revisions stay distinguishable.
var faqVersionRe = regexp.MustCompile(`(?i)\bFAQ,?\s*v\.?\s*\d+(?:\.\d+)*,?\s+[A-Za-z]+\s+\d{4}`)

// normalizeHTML parses a structured markup export. Ruling fragments live in
// list items whose <strong> runs label the segments; a payload without list
// items is treated as a single block. When marker extraction yields nothing
// but the payload still contains prose, the readability extractor recovers
// the text and it goes through the free-text path instead.
func (s *Service) normalizeHTML(unit entity.RawSourceUnit) ([]entity.RulingDraft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unit.Payload))
	if err != nil {
		return nil, fmt.Errorf("parse html payload: %w", err)
	}

	items := doc.Find("li")
	if items.Length() == 0 {
		// exports without list structure usually still paragraph their rulings
		items = doc.Find("p")
	}

	var drafts []entity.RulingDraft
	if items.Length() == 0 {
		drafts = s.draftsFromBlock(doc.Selection, unit)
	} else {
		items.Each(func(_ int, block *goquery.Selection) {
			drafts = append(drafts, s.draftsFromBlock(block, unit)...)
		})
	}

	if len(drafts) == 0 {
		if prose := extractProse(unit.Payload, unit.Origin); prose != "" {
			drafts = s.normalizeText(prose, baseProvenance(unit), unit)
		}
	}
	return drafts, nil
}

// draftsFromBlock converts one list item (or the whole document when no list
// structure exists) into drafts.
func (s *Service) draftsFromBlock(sel *goquery.Selection, unit entity.RawSourceUnit) []entity.RulingDraft {
	segs := splitSegments(sel)
	if len(segs) == 0 {
		return nil
	}

	prov := baseProvenance(unit)
	blockText := sel.Text()
	if stamp := faqVersionRe.FindString(blockText); stamp != "" {
		prov.SourceName = stamp
	}

	var related []string
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		related = append(related, harvestCardCodes(href)...)
	})
	related = dedupCodes(related)

	snippet, err := goquery.OuterHtml(sel)
	if err != nil || snippet == "" {
		snippet = blockText
	}

	return buildDrafts(segs, unit, prov, related, strings.TrimSpace(snippet))
}

// splitSegments walks a block's child nodes, starting a new segment at each
// <strong> marker and accumulating the text between markers. Text before the
// first marker forms an unlabeled segment.
func splitSegments(sel *goquery.Selection) []segment {
	var segs []segment
	cur := segment{}
	flush := func() {
		if cur.label != "" || strings.TrimSpace(cur.text) != "" {
			segs = append(segs, cur)
		}
		cur = segment{}
	}

	sel.Contents().Each(func(_ int, n *goquery.Selection) {
		if goquery.NodeName(n) == "strong" {
			flush()
			cur.label = strings.TrimSpace(n.Text())
			return
		}
		cur.text += n.Text()
	})
	flush()
	return segs
}

// extractProse runs the readability extractor over a payload that did not
// parse as a structured export. Returns "" when no readable content exists.
func extractProse(payload, origin string) string {
	pageURL, err := url.Parse(origin)
	if err != nil {
		pageURL = nil
	}
	article, err := readability.FromReader(strings.NewReader(payload), pageURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func dedupCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := codes[:0]
	for _, c := range codes {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
