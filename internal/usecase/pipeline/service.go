// Package pipeline orchestrates one corpus regeneration run: normalize and
// resolve raw units in parallel, merge the drafts into canonical rulings,
// enrich them through the oracle, rebuild the search index and publish the
// new snapshot. A run either publishes a complete snapshot or leaves the
// previous one serving.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"abyssal-tome/internal/domain/entity"
	"abyssal-tome/internal/index"
	"abyssal-tome/internal/observability/metrics"
	"abyssal-tome/internal/repository"
	"abyssal-tome/internal/usecase/enrich"
	"abyssal-tome/internal/usecase/merge"
)

// Normalizer turns one raw source unit into ruling drafts.
type Normalizer interface {
	Normalize(unit entity.RawSourceUnit) ([]entity.RulingDraft, error)
}

// Resolver finds card candidates in free text.
type Resolver interface {
	Resolve(text string) []entity.CardCandidate
}

// Enricher applies oracle suggestions to a merged corpus.
type Enricher interface {
	EnrichAll(ctx context.Context, rulings []*entity.Ruling) enrich.Stats
}

// RunStats summarizes one regeneration run.
type RunStats struct {
	Units              int
	ParseDefects       int
	Drafts             int
	CandidatesResolved int
	Rulings            int
	MergedDrafts       int
	TagConflicts       int
	ClusterSplits      int
	ReusedIDs          int
	EnrichErrors       int
	EnrichApplied      int
	IndexedTokens      int
	PersistFailed      bool
	Duration           time.Duration
}

// Service wires the pipeline stages together. The repository is optional:
// without one the pipeline runs purely in memory and identity continuity is
// seeded from the currently served snapshot.
type Service struct {
	normalizer  Normalizer
	resolver    Resolver
	merger      *merge.Service
	enricher    Enricher
	repo        repository.RulingRepository
	store       *index.Store
	parallelism int
}

// NewService creates a pipeline service. repo may be nil for in-memory runs.
func NewService(
	normalizer Normalizer,
	resolver Resolver,
	merger *merge.Service,
	enricher Enricher,
	repo repository.RulingRepository,
	store *index.Store,
) *Service {
	return &Service{
		normalizer:  normalizer,
		resolver:    resolver,
		merger:      merger,
		enricher:    enricher,
		repo:        repo,
		store:       store,
		parallelism: runtime.NumCPU(),
	}
}

// WithParallelism overrides the normalize/resolve worker count.
func (s *Service) WithParallelism(n int) *Service {
	if n > 0 {
		s.parallelism = n
	}
	return s
}

// Run executes one full regeneration over the given units. A failure to read
// the prior corpus or to build the index is fatal and leaves the previous
// snapshot serving; every other defect degrades with a diagnostic and a
// counter. The returned stats are valid even when err is non-nil.
func (s *Service) Run(ctx context.Context, units []entity.RawSourceUnit) (*RunStats, error) {
	logger := slog.Default()
	start := time.Now()
	stats := &RunStats{Units: len(units)}

	finish := func(success bool) {
		stats.Duration = time.Since(start)
		metrics.RecordPipelineRun(success, stats.Duration)
		logger.Info("pipeline run finished",
			slog.Bool("success", success),
			slog.Int("units", stats.Units),
			slog.Int("parse_defects", stats.ParseDefects),
			slog.Int("drafts", stats.Drafts),
			slog.Int("rulings", stats.Rulings),
			slog.Int("merged_drafts", stats.MergedDrafts),
			slog.Int("enrich_errors", stats.EnrichErrors),
			slog.Int("indexed_tokens", stats.IndexedTokens),
			slog.Duration("duration", stats.Duration))
	}

	prior, err := s.loadPrior(ctx)
	if err != nil {
		finish(false)
		return stats, fmt.Errorf("pipeline: load prior corpus: %w", err)
	}

	drafts, err := s.normalizeAll(ctx, units, stats)
	if err != nil {
		finish(false)
		return stats, fmt.Errorf("pipeline: normalize: %w", err)
	}
	stats.Drafts = len(drafts)
	metrics.RecordDraftsNormalized(len(drafts))

	rulings, mergeStats := s.merger.Merge(drafts, prior)
	stats.Rulings = len(rulings)
	stats.MergedDrafts = mergeStats.MergedDrafts
	stats.TagConflicts = mergeStats.TagConflicts
	stats.ClusterSplits = mergeStats.ClusterSplits
	stats.ReusedIDs = mergeStats.ReusedIDs
	metrics.RecordMergeDiagnostics(mergeStats.TagConflicts, mergeStats.ClusterSplits)

	enrichStats := s.enricher.EnrichAll(ctx, rulings)
	stats.EnrichApplied = enrichStats.Applied
	stats.EnrichErrors = enrichStats.Failures
	metrics.RecordEnrichment(enrichStats.Attempted, enrichStats.Applied, enrichStats.Failures)

	idx, err := index.Build(rulings)
	if err != nil {
		// the previous snapshot keeps serving
		finish(false)
		return stats, fmt.Errorf("pipeline: index build: %w", err)
	}
	stats.IndexedTokens = idx.TokenCount()

	s.store.Publish(&index.Snapshot{
		Corpus:  rulings,
		Index:   idx,
		BuiltAt: time.Now(),
	})
	metrics.UpdateCorpusGauges(len(rulings), idx.TokenCount())

	if s.repo != nil {
		if err := s.repo.ReplaceAll(ctx, rulings); err != nil {
			// snapshot already serves in memory; persistence catches up next run
			stats.PersistFailed = true
			logger.Error("corpus persistence failed", slog.Any("error", err))
		}
	}

	finish(true)
	return stats, nil
}

// loadPrior returns the corpus the merge seeds identity continuity from:
// the persisted corpus when a repository is configured, otherwise whatever
// snapshot is currently served.
func (s *Service) loadPrior(ctx context.Context) ([]*entity.Ruling, error) {
	if s.repo != nil {
		return s.repo.LoadAll(ctx)
	}
	if snap := s.store.Current(); snap != nil {
		return snap.Corpus, nil
	}
	return nil, nil
}

// normalizeAll runs normalize+resolve over every unit with bounded
// parallelism. A unit that fails to parse or yields nothing is recorded as a
// parse defect and skipped; only context cancellation aborts the pass.
// Drafts are flattened in unit order so the pass is deterministic.
func (s *Service) normalizeAll(ctx context.Context, units []entity.RawSourceUnit, stats *RunStats) ([]entity.RulingDraft, error) {
	perUnit := make([][]entity.RulingDraft, len(units))
	var defects, resolved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.parallelism)

	for i := range units {
		i := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()
			// the select may win the semaphore against a done context
			if err := gctx.Err(); err != nil {
				return err
			}

			unit := units[i]
			drafts, err := s.normalizer.Normalize(unit)
			if err != nil {
				defects.Add(1)
				metrics.RecordParseDefect()
				slog.Warn("raw unit failed to normalize",
					slog.String("origin", unit.Origin),
					slog.String("kind", string(unit.Kind)),
					slog.Any("error", err))
				return nil
			}
			if len(drafts) == 0 {
				defects.Add(1)
				metrics.RecordParseDefect()
				slog.Warn("raw unit yielded no drafts",
					slog.String("origin", unit.Origin),
					slog.String("kind", string(unit.Kind)))
				return nil
			}

			for j := range drafts {
				cands := s.resolver.Resolve(drafts[j].ContentText())
				drafts[j].Candidates = cands
				resolved.Add(int64(len(cands)))
			}
			perUnit[i] = drafts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ParseDefects = int(defects.Load())
	stats.CandidatesResolved = int(resolved.Load())

	var out []entity.RulingDraft
	for _, drafts := range perUnit {
		out = append(out, drafts...)
	}
	return out, nil
}
