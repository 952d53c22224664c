package enrich

import (
	"strings"

	"comicshelf/pkg/domain"
)

// BuildQuery derives the metadata-search query for a recommendation: the
// title plus the first credited writer. Co-creators after the first comma are
// dropped because they dilute full-text search results.
func BuildQuery(rec domain.Recommendation) string {
	query := strings.TrimSpace(rec.Title)
	if writer := primaryWriter(rec.Writer); writer != "" {
		query = strings.TrimSpace(query + " " + writer)
	}
	return query
}

// CacheKey normalizes a query into its cache key.
func CacheKey(query string) string {
	return strings.ToLower(query)
}

func primaryWriter(credits string) string {
	first, _, _ := strings.Cut(credits, ",")
	return strings.TrimSpace(first)
}
