package app

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"comicshelf/pkg/domain"
)

// recommendationsMarker separates the archivist's prose from the structured
// suggestion block in a model reply.
const recommendationsMarker = "RECOMMENDATIONS:"

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

type parsedReply struct {
	message         string
	recommendations []domain.Recommendation
}

// parseArchivistReply splits a model reply into display prose and structured
// recommendations. Extraction is best effort: any malformed or missing JSON
// degrades to zero recommendations with the prose kept intact.
func parseArchivistReply(text string) parsedReply {
	before, after, found := strings.Cut(text, recommendationsMarker)
	reply := parsedReply{message: strings.TrimSpace(before)}
	if !found {
		return reply
	}
	raw := jsonObjectPattern.FindString(after)
	if raw == "" {
		return reply
	}
	var payload struct {
		Comics []struct {
			Title     string   `json:"title"`
			Series    string   `json:"series"`
			Writer    string   `json:"writer"`
			Artist    string   `json:"artist"`
			Publisher string   `json:"publisher"`
			Year      flexYear `json:"year"`
			CoverURL  string   `json:"coverUrl"`
		} `json:"comics"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return reply
	}
	for _, c := range payload.Comics {
		reply.recommendations = append(reply.recommendations, domain.Recommendation{
			Title:     c.Title,
			Series:    c.Series,
			Writer:    c.Writer,
			Artist:    c.Artist,
			Publisher: c.Publisher,
			Year:      int(c.Year),
			CoverURL:  c.CoverURL,
		})
	}
	return reply
}

// flexYear accepts a JSON number or a numeric string. Anything else decodes
// to zero rather than failing the whole block.
type flexYear int

func (y *flexYear) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			*y = flexYear(v)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*y = flexYear(v)
		}
	}
	return nil
}
