package match

import (
	"log/slog"
	"sort"

	"comicshelf/pkg/domain"
)

// DefaultThreshold is the minimum score required to accept a candidate.
const DefaultThreshold = 70

// Candidate pairs a search result with its computed score against one
// recommendation. It only exists inside the selection working set.
type Candidate struct {
	Record domain.ComicRecord
	Score  int
}

// SelectBest scores every candidate against the recommendation and returns
// the highest-scoring one, provided it clears the threshold. Returns nil for
// an empty candidate set or when nothing scores high enough; the caller is
// expected to fall back to a synthesized record. Ties keep original result
// order.
func SelectBest(candidates []domain.ComicRecord, rec domain.Recommendation, threshold int) *domain.ComicRecord {
	if len(candidates) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	scored := make([]Candidate, len(candidates))
	for i, c := range candidates {
		scored[i] = Candidate{Record: c, Score: Score(c, rec)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := scored
	if len(top) > 3 {
		top = top[:3]
	}
	for _, c := range top {
		slog.Debug("match candidate",
			"title", c.Record.Title,
			"score", c.Score,
			"wanted", rec.Title,
		)
	}

	if scored[0].Score < threshold {
		return nil
	}
	best := scored[0].Record
	return &best
}
