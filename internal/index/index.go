// Package index builds and serves the in-memory search index over a ruling
// corpus. An Index is immutable once built; readers share it without locks
// and regeneration publishes a fresh one through the snapshot store.
package index

import (
	"fmt"
	"sort"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/usecase/resolve"
	"abyssal-tome/internal/utils/text"
)

// Index is an immutable inverted index over rulings. Token postings drive
// term search, the card map drives card-scoped lookup, and the phonetic map
// expands fuzzy queries to sound-alike tokens.
type Index struct {
	rulings  map[string]*entity.Ruling
	postings map[string]map[string]struct{}
	byCard   map[string]map[string]struct{}
	phonetic map[string][]string
}

// Build indexes the corpus. Every ruling is validated first; a single invalid
// ruling fails the whole build so a broken corpus is never published.
func Build(corpus []*entity.Ruling) (*Index, error) {
	idx := &Index{
		rulings:  make(map[string]*entity.Ruling, len(corpus)),
		postings: make(map[string]map[string]struct{}),
		byCard:   make(map[string]map[string]struct{}),
		phonetic: make(map[string][]string),
	}

	for _, r := range corpus {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("index build: ruling %q: %w", r.ID, err)
		}
		if _, dup := idx.rulings[r.ID]; dup {
			return nil, fmt.Errorf("index build: duplicate ruling id %q", r.ID)
		}
		idx.rulings[r.ID] = r

		for _, tok := range searchTokens(r) {
			idx.addPosting(tok, r.ID)
		}

		idx.addCard(r.SourceCardCode, r.ID)
		for _, code := range r.RelatedCardCodes {
			idx.addCard(code, r.ID)
		}
	}

	idx.buildPhonetic()
	return idx, nil
}

// searchTokens yields the index tokens of one ruling: its content text plus
// its tags, normalized the same way queries are.
func searchTokens(r *entity.Ruling) []string {
	toks := text.Tokenize(r.ContentText())
	for _, tag := range r.Tags {
		toks = append(toks, text.Tokenize(tag)...)
	}
	return toks
}

func (idx *Index) addPosting(tok, id string) {
	set, ok := idx.postings[tok]
	if !ok {
		set = make(map[string]struct{})
		idx.postings[tok] = set
	}
	set[id] = struct{}{}
}

func (idx *Index) addCard(code, id string) {
	if code == "" {
		return
	}
	set, ok := idx.byCard[code]
	if !ok {
		set = make(map[string]struct{})
		idx.byCard[code] = set
	}
	set[id] = struct{}{}
}

// buildPhonetic maps each token's phonetic key to the tokens sharing it,
// sorted for deterministic fuzzy expansion. The same key function the card
// resolver uses drives query-side expansion, so "Agnas" finds "agnes".
func (idx *Index) buildPhonetic() {
	for tok := range idx.postings {
		key := resolve.PhoneticKey(tok)
		if key == "" {
			continue
		}
		idx.phonetic[key] = append(idx.phonetic[key], tok)
	}
	for key := range idx.phonetic {
		sort.Strings(idx.phonetic[key])
	}
}

// Len returns the number of indexed rulings.
func (idx *Index) Len() int {
	return len(idx.rulings)
}

// TokenCount returns the number of distinct tokens in the postings.
func (idx *Index) TokenCount() int {
	return len(idx.postings)
}

// Get returns the indexed ruling with the given ID.
func (idx *Index) Get(id string) (*entity.Ruling, bool) {
	r, ok := idx.rulings[id]
	return r, ok
}

// Search returns rulings matching the query terms, ranked by term overlap
// count descending, then newest provenance retrieval descending, then ID
// ascending. With fuzzy set, each query term additionally matches indexed
// tokens sharing its phonetic key. A non-positive limit returns all matches.
func (idx *Index) Search(query string, fuzzy bool, limit int) []*entity.Ruling {
	terms := text.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scores := make(map[string]int)
	for _, term := range terms {
		for id := range idx.matchTerm(term, fuzzy) {
			scores[id]++
		}
	}

	return idx.rank(scores, limit)
}

// matchTerm collects the ruling IDs matching one term, including phonetic
// sound-alikes when fuzzy is set. A term matches each ruling at most once
// regardless of how many expanded tokens hit it.
func (idx *Index) matchTerm(term string, fuzzy bool) map[string]struct{} {
	ids := make(map[string]struct{})
	for id := range idx.postings[term] {
		ids[id] = struct{}{}
	}
	if !fuzzy {
		return ids
	}
	key := resolve.PhoneticKey(term)
	if key == "" {
		return ids
	}
	for _, tok := range idx.phonetic[key] {
		for id := range idx.postings[tok] {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// ByCard returns the rulings filed under or related to the given card code,
// newest first, ties by ID ascending. A non-positive limit returns all.
func (idx *Index) ByCard(code string, limit int) []*entity.Ruling {
	set, ok := idx.byCard[code]
	if !ok {
		return nil
	}
	scores := make(map[string]int, len(set))
	for id := range set {
		scores[id] = 1
	}
	return idx.rank(scores, limit)
}

func (idx *Index) rank(scores map[string]int, limit int) []*entity.Ruling {
	if len(scores) == 0 {
		return nil
	}
	out := make([]*entity.Ruling, 0, len(scores))
	for id := range scores {
		out = append(out, idx.rulings[id])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		an, bn := a.NewestRetrievedAt(), b.NewestRetrievedAt()
		if !an.Equal(bn) {
			return an.After(bn)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
