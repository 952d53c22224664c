package match

import (
	"testing"

	"comicshelf/pkg/domain"
)

func TestSelectBestEmpty(t *testing.T) {
	if got := SelectBest(nil, domain.Recommendation{Title: "Saga"}, DefaultThreshold); got != nil {
		t.Fatalf("SelectBest on empty candidates = %+v, want nil", got)
	}
}

func TestSelectBestPicksHighestScorer(t *testing.T) {
	rec := domain.Recommendation{Title: "Y: The Last Man", Writer: "Brian K. Vaughan"}
	candidates := []domain.ComicRecord{
		{ID: "gcd-1", Title: "Spawn", Writer: "Todd McFarlane"},
		{ID: "gcd-2", Title: "Y: The Last Man", Writer: "Brian K. Vaughan"},
		{ID: "gcd-3", Title: "Bone", Writer: "Jeff Smith"},
	}
	got := SelectBest(candidates, rec, DefaultThreshold)
	if got == nil {
		t.Fatalf("expected a match")
	}
	if got.ID != "gcd-2" {
		t.Fatalf("selected %q, want gcd-2", got.ID)
	}
}

func TestSelectBestRejectsBelowThreshold(t *testing.T) {
	rec := domain.Recommendation{Title: "Monstress"}
	candidates := []domain.ComicRecord{
		{ID: "gcd-1", Title: "Monstrum"}, // similar title but nothing else
		{ID: "gcd-2", Title: "Paper Girls"},
	}
	got := SelectBest(candidates, rec, DefaultThreshold)
	if got != nil {
		t.Fatalf("no candidate clears 70 on title alone, got %+v with score %d",
			got, Score(*got, rec))
	}
}

func TestSelectBestNeverReturnsBelowThreshold(t *testing.T) {
	rec := domain.Recommendation{Title: "Saga", Writer: "Brian K. Vaughan"}
	candidates := []domain.ComicRecord{
		{Title: "Sago"},
		{Title: "Saga", Writer: "Brian K. Vaughan"},
		{Title: "Sagas"},
	}
	got := SelectBest(candidates, rec, DefaultThreshold)
	if got == nil {
		t.Fatalf("expected exact match to clear threshold")
	}
	if score := Score(*got, rec); score < DefaultThreshold {
		t.Fatalf("returned candidate scores %d, below threshold", score)
	}
}

func TestSelectBestStableTieBreak(t *testing.T) {
	rec := domain.Recommendation{Title: "Saga", Writer: "Brian K. Vaughan"}
	candidates := []domain.ComicRecord{
		{ID: "gcd-first", Title: "Saga", Writer: "Brian K. Vaughan"},
		{ID: "gcd-second", Title: "Saga", Writer: "Brian K. Vaughan"},
	}
	got := SelectBest(candidates, rec, DefaultThreshold)
	if got == nil || got.ID != "gcd-first" {
		t.Fatalf("ties should keep original result order, got %+v", got)
	}
}
