// Package merge implements draft clustering and canonical ruling production.
// Drafts describing the same underlying ruling are grouped with union-find
// semantics and merged into one Ruling per cluster, with provenance unioned
// and identifiers carried over from the prior corpus where possible.
package merge

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/utils/text"
)

const (
	// SimilarityThreshold is the minimum text similarity for two drafts with
	// the same type and primary card code to be considered the same ruling.
	SimilarityThreshold = 0.85

	// DefaultDiameterCap bounds the maximum pairwise dissimilarity tolerated
	// inside one cluster. Union-find transitivity can chain unrelated drafts
	// through intermediates; clusters wider than the cap are split. Zero
	// disables the check.
	DefaultDiameterCap = 0.45
)

// Stats summarizes one merge pass.
type Stats struct {
	Drafts        int
	Rulings       int
	MergedDrafts  int // drafts absorbed into a cluster beyond its first
	TagConflicts  int
	ClusterSplits int
	ReusedIDs     int
}

// Service merges drafts into canonical rulings. The zero value is not usable;
// construct with NewService.
type Service struct {
	diameterCap float64
	newID       func() string
}

// NewService creates a merge service with the default cluster diameter cap.
func NewService() *Service {
	return &Service{
		diameterCap: DefaultDiameterCap,
		newID:       func() string { return uuid.New().String() },
	}
}

// WithDiameterCap overrides the cluster diameter cap. Zero disables the
// post-hoc split check and restores plain union-find transitivity.
func (s *Service) WithDiameterCap(cap float64) *Service {
	s.diameterCap = cap
	return s
}

// Merge clusters the full draft set and produces one canonical ruling per
// cluster. prior supplies the previous corpus for identity continuity: a
// cluster containing the earliest provenance of a prior ruling reuses its
// identifier. All drafts must be visible before calling; Merge is a
// single-threaded critical section by design.
func (s *Service) Merge(drafts []entity.RulingDraft, prior []*entity.Ruling) ([]*entity.Ruling, Stats) {
	stats := Stats{Drafts: len(drafts)}
	if len(drafts) == 0 {
		return nil, stats
	}

	ordered := orderDrafts(drafts)
	uf := newUnionFind(len(ordered))

	s.linkSimilar(ordered, uf)
	linkSupersessions(ordered, uf)

	clusters := uf.clusters()
	clusters = s.splitWideClusters(ordered, clusters, &stats)

	priorIDs := priorIDIndex(prior)

	rulings := make([]*entity.Ruling, 0, len(clusters))
	for _, cluster := range clusters {
		r := s.mergeCluster(ordered, cluster, priorIDs, &stats)
		rulings = append(rulings, r)
		stats.MergedDrafts += len(cluster) - 1
	}
	stats.Rulings = len(rulings)

	return rulings, stats
}

// orderDrafts sorts drafts by retrieval timestamp, breaking ties by
// provenance key and content so clustering decisions never depend on input
// order.
func orderDrafts(drafts []entity.RulingDraft) []entity.RulingDraft {
	ordered := make([]entity.RulingDraft, len(drafts))
	copy(ordered, drafts)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Provenance.RetrievedAt.Equal(b.Provenance.RetrievedAt) {
			return a.Provenance.RetrievedAt.Before(b.Provenance.RetrievedAt)
		}
		if ak, bk := a.Provenance.Key(), b.Provenance.Key(); ak != bk {
			return ak < bk
		}
		return a.ContentText() < b.ContentText()
	})
	return ordered
}

// linkSimilar unions drafts sharing a type and primary card code whose text
// similarity exceeds the threshold. Pairs are only compared within their
// (type, card) bucket, keeping the quadratic comparison local.
func (s *Service) linkSimilar(drafts []entity.RulingDraft, uf *unionFind) {
	buckets := make(map[string][]int)
	for i, d := range drafts {
		key := string(d.Type) + "\x1f" + d.PrimaryCardCode()
		buckets[key] = append(buckets[key], i)
	}
	for _, idxs := range buckets {
		for i := 0; i < len(idxs); i++ {
			for j := i + 1; j < len(idxs); j++ {
				a, b := drafts[idxs[i]], drafts[idxs[j]]
				if Similarity(a.ContentText(), b.ContentText()) > SimilarityThreshold {
					uf.union(idxs[i], idxs[j])
				}
			}
		}
	}
}

// linkSupersessions unions drafts explicitly marked as updates of another
// draft's provenance. Supersession links merge across type and card buckets.
func linkSupersessions(drafts []entity.RulingDraft, uf *unionFind) {
	byProv := make(map[string]int, len(drafts))
	for i, d := range drafts {
		if _, taken := byProv[d.Provenance.Key()]; !taken {
			byProv[d.Provenance.Key()] = i
		}
	}
	for i, d := range drafts {
		if d.Supersedes == "" {
			continue
		}
		if j, ok := byProv[d.Supersedes]; ok {
			uf.union(i, j)
		}
	}
}

// splitWideClusters enforces the diameter cap: any cluster whose maximum
// pairwise dissimilarity exceeds the cap is re-seeded greedily from its
// earliest draft, splitting off drafts too far from the seed.
func (s *Service) splitWideClusters(drafts []entity.RulingDraft, clusters [][]int, stats *Stats) [][]int {
	if s.diameterCap <= 0 {
		return clusters
	}

	var out [][]int
	for _, cluster := range clusters {
		if len(cluster) < 3 || clusterDiameter(drafts, cluster) <= s.diameterCap {
			out = append(out, cluster)
			continue
		}

		stats.ClusterSplits++
		slog.Warn("cluster exceeds diameter cap, splitting",
			slog.Int("size", len(cluster)),
			slog.Float64("cap", s.diameterCap))

		remaining := append([]int(nil), cluster...)
		for len(remaining) > 0 {
			seed := remaining[0]
			var kept, rest []int
			kept = append(kept, seed)
			for _, idx := range remaining[1:] {
				d := 1.0 - Similarity(drafts[seed].ContentText(), drafts[idx].ContentText())
				if d <= s.diameterCap {
					kept = append(kept, idx)
				} else {
					rest = append(rest, idx)
				}
			}
			out = append(out, kept)
			remaining = rest
		}
	}
	return out
}

func clusterDiameter(drafts []entity.RulingDraft, cluster []int) float64 {
	maxDissim := 0.0
	for i := 0; i < len(cluster); i++ {
		for j := i + 1; j < len(cluster); j++ {
			d := 1.0 - Similarity(drafts[cluster[i]].ContentText(), drafts[cluster[j]].ContentText())
			if d > maxDissim {
				maxDissim = d
			}
		}
	}
	return maxDissim
}

// mergeCluster produces the canonical ruling for one cluster. The earliest
// draft supplies the primary content and type; the rest contribute provenance
// and related card codes only.
func (s *Service) mergeCluster(drafts []entity.RulingDraft, cluster []int, priorIDs map[string]string, stats *Stats) *entity.Ruling {
	first := drafts[cluster[0]]

	r := &entity.Ruling{
		SourceCardCode:  first.PrimaryCardCode(),
		Type:            first.Type,
		RawType:         first.RawType,
		Question:        first.Question,
		Answer:          first.Answer,
		Text:            first.Text,
		OriginalSnippet: first.OriginalSnippet,
	}

	related := make(map[string]struct{})
	seenProv := make(map[string]struct{})
	for _, idx := range cluster {
		d := drafts[idx]

		if d.Type != r.Type {
			stats.TagConflicts++
			slog.Warn("tag conflict in cluster, keeping earliest",
				slog.String("kept", string(r.Type)),
				slog.String("dropped", string(d.Type)))
		}

		if _, dup := seenProv[d.Provenance.Key()]; !dup {
			seenProv[d.Provenance.Key()] = struct{}{}
			r.Provenance = append(r.Provenance, d.Provenance)
		}

		for _, c := range d.Candidates {
			related[c.Code] = struct{}{}
		}
		for _, code := range d.RelatedCodes {
			related[code] = struct{}{}
		}
	}

	sort.Slice(r.Provenance, func(i, j int) bool {
		return r.Provenance[i].RetrievedAt.Before(r.Provenance[j].RetrievedAt)
	})

	delete(related, r.SourceCardCode)
	r.RelatedCardCodes = sortedKeys(related)

	r.ID = s.assignID(r, priorIDs, stats)
	return r
}

// assignID reuses a prior ruling's identifier when any of the cluster's
// provenance keys appeared on a prior ruling, checking oldest provenance
// first; otherwise a fresh identifier is minted. This is what keeps external
// opinion links from dangling across regenerations.
func (s *Service) assignID(r *entity.Ruling, priorIDs map[string]string, stats *Stats) string {
	for _, p := range r.Provenance {
		if id, ok := priorIDs[p.Key()]; ok {
			stats.ReusedIDs++
			return id
		}
	}
	return s.newID()
}

// priorIDIndex maps every provenance key of each prior ruling to its
// identifier. When two prior rulings claim the same key, the lower identifier
// wins so the mapping is deterministic.
func priorIDIndex(prior []*entity.Ruling) map[string]string {
	idx := make(map[string]string)
	for _, r := range prior {
		for _, p := range r.Provenance {
			key := p.Key()
			if existing, ok := idx[key]; ok && existing <= r.ID {
				continue
			}
			idx[key] = r.ID
		}
	}
	return idx
}

// Similarity scores two ruling texts in [0,1] as the better of token-overlap
// ratio and normalized edit similarity, after case folding and whitespace
// squashing. Whitespace and punctuation drift therefore never separates two
// otherwise identical drafts.
func Similarity(a, b string) float64 {
	a = text.Squash(strings.ToLower(a))
	b = text.Squash(strings.ToLower(b))
	if a == b {
		return 1.0
	}

	overlap := text.OverlapRatio(a, b)

	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	edit := 0.0
	if maxLen > 0 {
		dist := levenshtein.ComputeDistance(a, b)
		edit = 1.0 - float64(dist)/float64(maxLen)
	}

	if overlap > edit {
		return overlap
	}
	return edit
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
