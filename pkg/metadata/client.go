// Package metadata talks to the external comics metadata catalog. The
// catalog exposes issue-level records with per-person credit roles; this
// package flattens those into domain records the matching pipeline can score.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"comicshelf/pkg/domain"
)

// Client calls the comics metadata search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient constructs a metadata client for the given catalog endpoint.
func NewClient(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("metadata base url required")
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}, nil
}

// Search runs a free-text issue search and returns candidates in the
// catalog's relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]domain.ComicRecord, error) {
	q := url.Values{}
	q.Set("q", query)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/issues?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return nil, fmt.Errorf("metadata search: %s", errResp.Error)
		}
		return nil, fmt.Errorf("metadata search: %s", resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("metadata search: decode: %w", err)
	}

	records := make([]domain.ComicRecord, 0, len(payload.Results))
	for _, issue := range payload.Results {
		records = append(records, c.toRecord(issue))
	}
	return records, nil
}

func (c *Client) toRecord(issue issueResult) domain.ComicRecord {
	writer, artist := splitRoles(issue.Credits)
	year := coverYear(issue.CoverDate)
	if year == 0 {
		year = c.now().Year()
	}
	return domain.ComicRecord{
		ID:          "gcd-" + string(issue.ID),
		Title:       issue.Title,
		Series:      issue.Series,
		Writer:      writer,
		Artist:      artist,
		Publisher:   issue.Publisher,
		Year:        year,
		Description: issue.Description,
		CoverURL:    issue.CoverURL,
	}
}

// splitRoles picks one writer and one artist from the credit list. Roles are
// matched case-insensitively and the first credit wins per role.
func splitRoles(credits []credit) (writer, artist string) {
	for _, cr := range credits {
		switch strings.ToLower(strings.TrimSpace(cr.Role)) {
		case "writer", "script":
			if writer == "" {
				writer = cr.Name
			}
		case "artist", "penciler", "penciller", "illustrator":
			if artist == "" {
				artist = cr.Name
			}
		}
	}
	return writer, artist
}

// coverYear extracts the year from a catalog cover date, which arrives as
// "2012", "2012-03" or "2012-03-14". Returns 0 when absent or unparseable.
func coverYear(coverDate string) int {
	coverDate = strings.TrimSpace(coverDate)
	if len(coverDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(coverDate[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Results []issueResult `json:"results"`
	Count   int           `json:"count"`
}

// flexID tolerates both numeric and string issue identifiers; the catalog's
// older records carry string slugs.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type issueResult struct {
	ID          flexID   `json:"id"`
	Title       string   `json:"title"`
	Series      string   `json:"series"`
	Credits     []credit `json:"credits"`
	Publisher   string   `json:"publisher"`
	CoverDate   string   `json:"cover_date"`
	CoverURL    string   `json:"cover_url"`
	Description string   `json:"description"`
}

type credit struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
