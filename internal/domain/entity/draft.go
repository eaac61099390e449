package entity

// CardCandidate is one resolved card-identifier candidate for a draft, with
// the resolver's confidence in [0,1].
type CardCandidate struct {
	Code       string
	Confidence float64
}

// RulingDraft is the transient, pre-merge extraction of a ruling from one raw
// source unit. Drafts are created by the normalizer, annotated by the resolver
// and consumed by the merger; they are never persisted.
type RulingDraft struct {
	SourceCardCode  string // card code the fragment was filed under, if known
	Type            RulingType
	RawType         string // original label when Type == TypeOther
	Question        string
	Answer          string
	Text            string
	Candidates      []CardCandidate
	RelatedCodes    []string // codes harvested directly from the fragment markup
	Provenance      Provenance
	OriginalSnippet string
	// Supersedes holds the provenance key of a draft this one explicitly
	// updates, when the source marks the relationship.
	Supersedes string
}

// ContentText returns the draft's searchable text, mirroring Ruling.ContentText.
func (d *RulingDraft) ContentText() string {
	if d.Text != "" {
		return d.Text
	}
	if d.Answer == "" {
		return d.Question
	}
	return d.Question + " " + d.Answer
}

// PrimaryCardCode returns the draft's primary card code: the code it was filed
// under when known, otherwise the highest-confidence resolver candidate,
// otherwise the general sentinel.
func (d *RulingDraft) PrimaryCardCode() string {
	if d.SourceCardCode != "" {
		return d.SourceCardCode
	}
	best := ""
	bestConf := 0.0
	for _, c := range d.Candidates {
		// strictly greater keeps the first (lowest code) on ties; candidates
		// arrive sorted by code ascending
		if c.Confidence > bestConf {
			best = c.Code
			bestConf = c.Confidence
		}
	}
	if best == "" {
		return GeneralCardCode
	}
	return best
}
