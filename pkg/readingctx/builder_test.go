package readingctx

import (
	"fmt"
	"testing"
	"time"

	"comicshelf/pkg/domain"
)

func readRecord(title string, readAt time.Time) domain.ComicRecord {
	return domain.ComicRecord{
		Title:      title,
		Tags:       []domain.ReadingTag{domain.TagRead},
		LastReadAt: &readAt,
	}
}

func TestBuildEmptyCollection(t *testing.T) {
	ctx := Build(nil)
	if ctx.CollectionSize != 0 {
		t.Fatalf("collection size = %d, want 0", ctx.CollectionSize)
	}
	if ctx.Stats.ReadingStreak != 0 {
		t.Fatalf("streak = %d, want 0", ctx.Stats.ReadingStreak)
	}
	if ctx.Stats.AverageRating != 0 {
		t.Fatalf("average rating = %v, want 0", ctx.Stats.AverageRating)
	}
	if len(ctx.Stats.FavoriteGenres) != 0 {
		t.Fatalf("favorite genres should be empty")
	}
}

func TestRecentReadsMostRecentFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	collection := []domain.ComicRecord{
		readRecord("old", base),
		readRecord("newest", base.Add(48*time.Hour)),
		{Title: "unread"},
		readRecord("middle", base.Add(24*time.Hour)),
	}
	ctx := Build(collection)
	if len(ctx.RecentReads) != 3 {
		t.Fatalf("recent reads = %d, want 3", len(ctx.RecentReads))
	}
	want := []string{"newest", "middle", "old"}
	for i, title := range want {
		if ctx.RecentReads[i].Title != title {
			t.Fatalf("recent reads[%d] = %q, want %q", i, ctx.RecentReads[i].Title, title)
		}
	}
}

func TestRecentReadsCap(t *testing.T) {
	now := time.Now().UTC()
	var collection []domain.ComicRecord
	for i := 0; i < 30; i++ {
		collection = append(collection, readRecord(fmt.Sprintf("comic-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}
	ctx := Build(collection)
	if len(ctx.RecentReads) != 20 {
		t.Fatalf("recent reads capped at 20, got %d", len(ctx.RecentReads))
	}
}

func TestFavoriteCreatorsByFrequency(t *testing.T) {
	collection := []domain.ComicRecord{
		{Title: "a", Writer: "Brian K. Vaughan", Artist: "Fiona Staples"},
		{Title: "b", Writer: "Brian K. Vaughan"},
		{Title: "c", Writer: "Jeff Smith"},
	}
	ctx := Build(collection)
	if len(ctx.FavoriteCreators) == 0 || ctx.FavoriteCreators[0] != "Brian K. Vaughan" {
		t.Fatalf("favorite creators = %v, want Brian K. Vaughan first", ctx.FavoriteCreators)
	}
}

func TestCurrentlyReadingUsesWantTag(t *testing.T) {
	collection := []domain.ComicRecord{
		{Title: "wanted", Tags: []domain.ReadingTag{domain.TagWant}},
		{Title: "owned", Tags: []domain.ReadingTag{domain.TagOwned}},
	}
	ctx := Build(collection)
	if len(ctx.CurrentlyReading) != 1 || ctx.CurrentlyReading[0].Title != "wanted" {
		t.Fatalf("currently reading = %+v", ctx.CurrentlyReading)
	}
}

func TestTopRatedThresholdAndCap(t *testing.T) {
	var collection []domain.ComicRecord
	for i := 0; i < 8; i++ {
		collection = append(collection, domain.ComicRecord{Title: fmt.Sprintf("great-%d", i), Rating: 5})
	}
	collection = append(collection, domain.ComicRecord{Title: "meh", Rating: 3})
	ctx := Build(collection)
	if len(ctx.TopRated) != 5 {
		t.Fatalf("top rated capped at 5, got %d", len(ctx.TopRated))
	}
	for _, c := range ctx.TopRated {
		if c.Rating < 4 {
			t.Fatalf("top rated should require rating >= 4, got %+v", c)
		}
	}
}

func TestAverageRatingRounded(t *testing.T) {
	collection := []domain.ComicRecord{
		{Title: "a", Rating: 5},
		{Title: "b", Rating: 4},
		{Title: "c", Rating: 4},
		{Title: "unrated"},
	}
	ctx := Build(collection)
	// (5+4+4)/3 = 4.333... -> 4.3
	if ctx.Stats.AverageRating != 4.3 {
		t.Fatalf("average rating = %v, want 4.3", ctx.Stats.AverageRating)
	}
}

func TestReadingStreakConsecutiveDays(t *testing.T) {
	day := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	collection := []domain.ComicRecord{
		readRecord("a", day),
		readRecord("b", day.AddDate(0, 0, -1)),
		readRecord("c", day.AddDate(0, 0, -2)),
	}
	ctx := Build(collection)
	if ctx.Stats.ReadingStreak != 3 {
		t.Fatalf("streak = %d, want 3", ctx.Stats.ReadingStreak)
	}
}

func TestReadingStreakBreaksOnGap(t *testing.T) {
	day := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	collection := []domain.ComicRecord{
		readRecord("a", day),
		readRecord("b", day.AddDate(0, 0, -1)),
		// two-day gap
		readRecord("c", day.AddDate(0, 0, -4)),
		readRecord("d", day.AddDate(0, 0, -5)),
	}
	ctx := Build(collection)
	if ctx.Stats.ReadingStreak != 2 {
		t.Fatalf("streak = %d, want the most recent run only (2)", ctx.Stats.ReadingStreak)
	}
}

func TestReadingStreakSingleDay(t *testing.T) {
	collection := []domain.ComicRecord{readRecord("a", time.Now().UTC())}
	ctx := Build(collection)
	if ctx.Stats.ReadingStreak != 1 {
		t.Fatalf("streak = %d, want 1", ctx.Stats.ReadingStreak)
	}
}

func TestReadingStreakDedupesSameDay(t *testing.T) {
	day := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	collection := []domain.ComicRecord{
		readRecord("a", day),
		readRecord("b", day.Add(2*time.Hour)),
		readRecord("c", day.AddDate(0, 0, -1)),
	}
	ctx := Build(collection)
	if ctx.Stats.ReadingStreak != 2 {
		t.Fatalf("streak = %d, want 2 (same-day reads collapse)", ctx.Stats.ReadingStreak)
	}
}

func TestMostReadCreatorsOnlyCountReads(t *testing.T) {
	now := time.Now().UTC()
	collection := []domain.ComicRecord{
		readRecord("read one", now),
		{Title: "unread", Writer: "Nobody Counted"},
	}
	collection[0].Writer = "Counted Writer"
	ctx := Build(collection)
	for _, name := range ctx.Stats.MostReadCreators {
		if name == "Nobody Counted" {
			t.Fatalf("unread creators must not appear in most-read list")
		}
	}
	if len(ctx.Stats.MostReadCreators) != 1 || ctx.Stats.MostReadCreators[0] != "Counted Writer" {
		t.Fatalf("most read creators = %v", ctx.Stats.MostReadCreators)
	}
}
