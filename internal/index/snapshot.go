package index

import (
	"sync/atomic"
	"time"

	"abyssal-tome/internal/domain/entity"
)

// Snapshot pairs a corpus with the index built over it. Both are immutable;
// a regeneration run builds a new snapshot and publishes it whole.
type Snapshot struct {
	Corpus  []*entity.Ruling
	Index   *Index
	BuiltAt time.Time
}

// Store holds the currently served snapshot. Readers always see either the
// previous complete snapshot or the new one, never a mix: publication is a
// single atomic pointer swap and a failed build simply never publishes.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the snapshot being served, or nil before the first publish.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish atomically replaces the served snapshot.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
}
