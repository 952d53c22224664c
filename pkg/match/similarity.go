package match

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// Similarity returns a normalized edit-distance similarity in [0, 1].
// Comparison is case-insensitive; two empty strings are treated as identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longer, shorter := a, b
	if len([]rune(longer)) < len([]rune(shorter)) {
		longer, shorter = shorter, longer
	}
	longerLen := len([]rune(longer))
	if longerLen == 0 {
		return 1.0
	}
	distance := edlib.LevenshteinDistance(longer, shorter)
	return 1.0 - float64(distance)/float64(longerLen)
}

// NormalizeTitle lowercases a title, strips everything that is not a letter,
// digit, or space, and collapses whitespace runs. Punctuation variants like
// "Saga, Vol. 1" and "saga vol 1" normalize to the same string so they never
// affect scoring.
func NormalizeTitle(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
