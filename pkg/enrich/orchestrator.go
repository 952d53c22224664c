package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"comicshelf/internal/util"
	"comicshelf/pkg/domain"
	"comicshelf/pkg/match"
)

// Searcher is the external comics metadata search provider.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.ComicRecord, error)
}

// Source marks where an enriched record came from.
type Source string

const (
	SourceExternal    Source = "external"
	SourceSynthesized Source = "synthesized"
)

// Confidence levels per outcome.
const (
	ConfidenceMatched       = 0.9 // provider candidate cleared the threshold
	ConfidenceNoMatch       = 0.5 // provider answered, nothing scored high enough
	ConfidenceProviderError = 0.3 // provider unreachable or failed
)

// Result is a resolved recommendation ready for display.
type Result struct {
	Record     domain.ComicRecord `json:"record"`
	Source     Source             `json:"source"`
	Confidence float64            `json:"confidence"`
}

const (
	defaultBatchGroupSize = 3
	defaultBatchPause     = 300 * time.Millisecond
)

// Orchestrator resolves recommendations into displayable comic records via
// search + matching, with a synthesis fallback so enrichment never fails.
type Orchestrator struct {
	search     Searcher
	cache      ResultCache
	clock      clockwork.Clock
	threshold  int
	groupSize  int
	groupPause time.Duration
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithThreshold overrides the match acceptance threshold.
func WithThreshold(threshold int) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.threshold = threshold
		}
	}
}

// WithOrchestratorClock substitutes the clock used for batch pacing.
func WithOrchestratorClock(clock clockwork.Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// NewOrchestrator wires the pipeline. The cache is injected so callers share
// one instance per process (or per test).
func NewOrchestrator(search Searcher, cache ResultCache, options ...OrchestratorOption) (*Orchestrator, error) {
	if search == nil {
		return nil, fmt.Errorf("searcher required")
	}
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL)
	}
	o := &Orchestrator{
		search:     search,
		cache:      cache,
		clock:      clockwork.NewRealClock(),
		threshold:  match.DefaultThreshold,
		groupSize:  defaultBatchGroupSize,
		groupPause: defaultBatchPause,
	}
	for _, option := range options {
		if option != nil {
			option(o)
		}
	}
	return o, nil
}

// Enrich resolves a single recommendation. Provider failure skips matching
// and synthesizes immediately; failures are never cached.
func (o *Orchestrator) Enrich(ctx context.Context, rec domain.Recommendation) Result {
	query := BuildQuery(rec)
	key := CacheKey(query)

	results, hit := o.cache.Get(key)
	if !hit {
		var err error
		results, err = o.search.Search(ctx, query)
		if err != nil {
			slog.Warn("metadata search failed, synthesizing record",
				"query", query, "err", err)
			return Result{
				Record:     o.synthesize(rec),
				Source:     SourceSynthesized,
				Confidence: ConfidenceProviderError,
			}
		}
		o.cache.Set(key, results)
	}

	if best := match.SelectBest(results, rec, o.threshold); best != nil {
		return Result{Record: *best, Source: SourceExternal, Confidence: ConfidenceMatched}
	}
	return Result{
		Record:     o.synthesize(rec),
		Source:     SourceSynthesized,
		Confidence: ConfidenceNoMatch,
	}
}

// EnrichBatch resolves recommendations in groups of three, concurrently
// within a group and with a fixed pause between groups. The pacing is a
// client-side courtesy to the search provider, not a correctness mechanism.
// Results keep input order.
func (o *Orchestrator) EnrichBatch(ctx context.Context, recs []domain.Recommendation) []Result {
	results := make([]Result, len(recs))
	for start := 0; start < len(recs); start += o.groupSize {
		if start > 0 {
			o.clock.Sleep(o.groupPause)
		}
		end := start + o.groupSize
		if end > len(recs) {
			end = len(recs)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = o.Enrich(gctx, recs[i])
				return nil
			})
		}
		_ = g.Wait() // Enrich never returns an error
	}
	return results
}

// synthesize builds a minimal record from the recommendation's own fields so
// the UI always has something to show.
func (o *Orchestrator) synthesize(rec domain.Recommendation) domain.ComicRecord {
	writer := rec.Writer
	if writer == "" {
		writer = "Unknown"
	}
	year := rec.Year
	if year == 0 {
		year = o.clock.Now().Year()
	}
	description := fmt.Sprintf("Suggested by the Archivist. No catalog entry was found for %q.", rec.Title)
	return domain.ComicRecord{
		ID:          "ai-" + util.NewID(),
		Title:       rec.Title,
		Series:      rec.Series,
		Writer:      writer,
		Artist:      rec.Artist,
		Publisher:   rec.Publisher,
		Year:        year,
		Description: description,
		CoverURL:    "",
		Tags:        []domain.ReadingTag{},
	}
}
