package match

import (
	"math"
	"strings"

	"comicshelf/pkg/domain"
)

// Component weights. A candidate missing writer, publisher, and year data can
// score at most 50 from the title alone, so it never clears the default
// threshold unless other fields corroborate the match.
const (
	titleWeight          = 50
	writerWeight         = 30
	writerPartialWeight  = 15
	publisherWeight      = 10
	yearWeight           = 10
	yearAdjacentWeight   = 7
	yearNearWeight       = 4
	yearNearDistance     = 3
	yearAdjacentDistance = 1
)

// Score rates how well a search candidate matches a recommendation, 0..100.
func Score(candidate domain.ComicRecord, rec domain.Recommendation) int {
	total := Similarity(NormalizeTitle(candidate.Title), NormalizeTitle(rec.Title)) * titleWeight

	if candidate.Writer != "" && rec.Writer != "" {
		if creatorsOverlap(candidate.Writer, rec.Writer) {
			total += writerWeight
		} else {
			total += Similarity(candidate.Writer, rec.Writer) * writerPartialWeight
		}
	}

	if candidate.Publisher != "" && rec.Publisher != "" {
		if containsEitherWay(candidate.Publisher, rec.Publisher) {
			total += publisherWeight
		}
	}

	if candidate.Year != 0 && rec.Year != 0 {
		switch diff := absInt(candidate.Year - rec.Year); {
		case diff == 0:
			total += yearWeight
		case diff <= yearAdjacentDistance:
			total += yearAdjacentWeight
		case diff <= yearNearDistance:
			total += yearNearWeight
		}
	}

	score := int(math.Round(total))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// creatorsOverlap splits both credit strings on "," and "&" and reports
// whether any token from one side is a substring of (or contains) any token
// from the other, case-insensitively.
func creatorsOverlap(a, b string) bool {
	for _, ta := range creatorTokens(a) {
		for _, tb := range creatorTokens(b) {
			if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
				return true
			}
		}
	}
	return false
}

func creatorTokens(credits string) []string {
	fields := strings.FieldsFunc(strings.ToLower(credits), func(r rune) bool {
		return r == ',' || r == '&'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func containsEitherWay(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
