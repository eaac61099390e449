package enrich

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"abyssal-tome/internal/domain/entity"
)

const (
	defaultConcurrency = 4
	defaultCallTimeout = 30 * time.Second
)

// Config controls the enrichment worker pool.
type Config struct {
	// Concurrency bounds the number of in-flight Oracle calls.
	Concurrency int
	// CallTimeout applies per Oracle call, independent of the run deadline.
	CallTimeout time.Duration
	// RatePerSecond throttles Oracle calls across the pool. Zero means
	// unthrottled.
	RatePerSecond float64
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Attempted int
	Applied   int
	Failures  int
}

// Service applies Oracle suggestions to rulings with bounded concurrency.
type Service struct {
	oracle      Oracle
	concurrency int
	callTimeout time.Duration
	limiter     *rate.Limiter
}

// NewService creates an enrichment service around the given Oracle.
func NewService(oracle Oracle, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Service{
		oracle:      oracle,
		concurrency: cfg.Concurrency,
		callTimeout: cfg.CallTimeout,
		limiter:     rate.NewLimiter(limit, cfg.Concurrency),
	}
}

// EnrichAll proposes and applies enrichment for every ruling. Oracle failures
// are counted and logged, never returned: a broken Oracle degrades the corpus
// to unenriched, it does not fail the run. Each ruling is mutated only by its
// own worker.
func (s *Service) EnrichAll(ctx context.Context, rulings []*entity.Ruling) Stats {
	var (
		mu    sync.Mutex
		stats Stats
	)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.concurrency)

	for _, r := range rulings {
		r := r
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			changed, err := s.enrichOne(ctx, r)

			mu.Lock()
			defer mu.Unlock()
			stats.Attempted++
			if err != nil {
				stats.Failures++
				slog.Warn("enrichment failed, ruling left unenriched",
					slog.String("ruling_id", r.ID),
					slog.Any("error", err))
			} else if changed {
				stats.Applied++
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return errors
	return stats
}

func (s *Service) enrichOne(ctx context.Context, r *entity.Ruling) (bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	sug, err := s.oracle.Propose(callCtx, OracleRequest{
		RulingID:     r.ID,
		CardCode:     r.SourceCardCode,
		Text:         r.ContentText(),
		Tags:         r.Tags,
		RelatedCodes: r.RelatedCardCodes,
	})
	if err != nil {
		return false, err
	}

	return Apply(r, sug), nil
}

// Apply merges a suggestion into a ruling. Tags and related codes become the
// sorted, deduplicated union of existing and suggested values; the ruling's
// own card code never enters its related set. Applying the same suggestion
// twice is a no-op, so re-running enrichment cannot grow the corpus
// unboundedly. Reports whether the ruling changed.
func Apply(r *entity.Ruling, sug OracleSuggestion) bool {
	changed := false

	tags := unionSorted(r.Tags, sug.Tags, "")
	if !equalStrings(r.Tags, tags) {
		r.Tags = tags
		changed = true
	}

	related := unionSorted(r.RelatedCardCodes, sug.RelatedCodes, r.SourceCardCode)
	if !equalStrings(r.RelatedCardCodes, related) {
		r.RelatedCardCodes = related
		changed = true
	}

	return changed
}

// unionSorted merges two string sets into a sorted, deduplicated slice,
// dropping empty values and the excluded element.
func unionSorted(existing, add []string, exclude string) []string {
	set := make(map[string]struct{}, len(existing)+len(add))
	for _, v := range existing {
		if v != "" && v != exclude {
			set[v] = struct{}{}
		}
	}
	for _, v := range add {
		if v != "" && v != exclude {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
