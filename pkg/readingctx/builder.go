// Package readingctx condenses a user's comic collection into the compact
// profile injected into the Archivist prompt. The context is a pure function
// of the collection snapshot: it is rebuilt in full on every request and
// never persisted.
package readingctx

import (
	"math"
	"sort"
	"strings"
	"time"

	"comicshelf/pkg/domain"
)

const (
	recentReadsCap      = 20
	favoriteCreatorsCap = 10
	currentlyReadingCap = 5
	topRatedCap         = 5
	publishersCap       = 5
	mostReadCreatorsCap = 10
	topRatedMinimum     = 4
)

// Build derives a ReadingContext from the collection.
//
// Recent reads are ordered most-recently-read first where a read timestamp
// exists; records without one keep collection order after the timestamped
// ones. "Currently reading" uses the want tag as a simple proxy for books the
// user has queued up; it is not a partial-series detector.
func Build(collection []domain.ComicRecord) domain.ReadingContext {
	return domain.ReadingContext{
		RecentReads:      recentReads(collection),
		FavoriteCreators: rankCreators(collection, favoriteCreatorsCap),
		CurrentlyReading: filterByTag(collection, domain.TagWant, currentlyReadingCap),
		TopRated:         topRated(collection),
		CollectionSize:   len(collection),
		Stats:            buildStats(collection),
	}
}

func recentReads(collection []domain.ComicRecord) []domain.ComicRecord {
	reads := make([]domain.ComicRecord, 0, len(collection))
	for _, c := range collection {
		if c.HasTag(domain.TagRead) {
			reads = append(reads, c)
		}
	}
	sort.SliceStable(reads, func(i, j int) bool {
		ti, tj := readTime(reads[i]), readTime(reads[j])
		return ti.After(tj)
	})
	return truncate(reads, recentReadsCap)
}

func readTime(c domain.ComicRecord) time.Time {
	if c.LastReadAt == nil {
		return time.Time{}
	}
	return *c.LastReadAt
}

func filterByTag(collection []domain.ComicRecord, tag domain.ReadingTag, cap int) []domain.ComicRecord {
	out := make([]domain.ComicRecord, 0, cap)
	for _, c := range collection {
		if c.HasTag(tag) {
			out = append(out, c)
			if len(out) == cap {
				break
			}
		}
	}
	return out
}

func topRated(collection []domain.ComicRecord) []domain.ComicRecord {
	out := make([]domain.ComicRecord, 0, topRatedCap)
	for _, c := range collection {
		if c.Rating >= topRatedMinimum {
			out = append(out, c)
			if len(out) == topRatedCap {
				break
			}
		}
	}
	return out
}

func buildStats(collection []domain.ComicRecord) domain.ReadingStats {
	var totalRead, ratedCount int
	var ratingSum float64
	reads := make([]domain.ComicRecord, 0, len(collection))
	for _, c := range collection {
		if c.HasTag(domain.TagRead) {
			totalRead++
			reads = append(reads, c)
		}
		if c.Rating > 0 {
			ratedCount++
			ratingSum += float64(c.Rating)
		}
	}
	average := 0.0
	if ratedCount > 0 {
		average = math.Round(ratingSum/float64(ratedCount)*10) / 10
	}
	return domain.ReadingStats{
		TotalRead:          totalRead,
		AverageRating:      average,
		FavoritePublishers: rankPublishers(collection, publishersCap),
		FavoriteGenres:     []string{}, // nothing in the data model carries genres yet
		ReadingStreak:      readingStreak(reads),
		MostReadCreators:   rankCreators(reads, mostReadCreatorsCap),
	}
}

// rankCreators tokenizes writer and artist credits on commas and ranks names
// by frequency. Ties break alphabetically for stable output.
func rankCreators(records []domain.ComicRecord, cap int) []string {
	counts := make(map[string]int)
	for _, c := range records {
		for _, name := range splitCredits(c.Writer) {
			counts[name]++
		}
		for _, name := range splitCredits(c.Artist) {
			counts[name]++
		}
	}
	return topNames(counts, cap)
}

func rankPublishers(records []domain.ComicRecord, cap int) []string {
	counts := make(map[string]int)
	for _, c := range records {
		if p := strings.TrimSpace(c.Publisher); p != "" {
			counts[p]++
		}
	}
	return topNames(counts, cap)
}

func topNames(counts map[string]int, cap int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return truncateStrings(names, cap)
}

func splitCredits(credits string) []string {
	parts := strings.Split(credits, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readingStreak counts the run of consecutive calendar days ending at the
// most recent read day. A gap of exactly one day continues the streak; any
// larger gap breaks it immediately.
func readingStreak(reads []domain.ComicRecord) int {
	seen := make(map[time.Time]struct{})
	for _, c := range reads {
		if c.LastReadAt == nil {
			continue
		}
		day := c.LastReadAt.UTC().Truncate(24 * time.Hour)
		seen[day] = struct{}{}
	}
	if len(seen) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

func truncate(records []domain.ComicRecord, cap int) []domain.ComicRecord {
	if len(records) > cap {
		return records[:cap]
	}
	return records
}

func truncateStrings(names []string, cap int) []string {
	if len(names) > cap {
		return names[:cap]
	}
	return names
}
