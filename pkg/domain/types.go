package domain

import "time"

type ReadingTag string

const (
	TagRead   ReadingTag = "read"
	TagOwned  ReadingTag = "owned"
	TagWant   ReadingTag = "want"
	TagReread ReadingTag = "reread"
)

// ValidTag reports whether the tag is one of the known reading states.
func ValidTag(tag ReadingTag) bool {
	switch tag {
	case TagRead, TagOwned, TagWant, TagReread:
		return true
	}
	return false
}

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ComicRecord is a single comic issue or volume in a user's collection.
// Records originate from the metadata search provider (gcd-prefixed IDs),
// from the recommendation fallback synthesizer (ai-prefixed IDs), or from
// direct user entry.
type ComicRecord struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId,omitempty"`
	Title       string       `json:"title"`
	Series      string       `json:"series,omitempty"`
	Writer      string       `json:"writer,omitempty"`
	Artist      string       `json:"artist,omitempty"`
	Publisher   string       `json:"publisher,omitempty"`
	Year        int          `json:"year,omitempty"`
	Description string       `json:"description,omitempty"`
	CoverURL    string       `json:"coverUrl,omitempty"`
	Tags        []ReadingTag `json:"tags"`
	Rating      int          `json:"rating,omitempty"` // 0 = unrated, otherwise 1..5
	LastReadAt  *time.Time   `json:"lastReadAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// HasTag reports whether the record carries the given reading state.
func (c ComicRecord) HasTag(tag ReadingTag) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WithTag returns the tag set with tag added. The set never holds duplicates.
func WithTag(tags []ReadingTag, tag ReadingTag) []ReadingTag {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// WithoutTag returns the tag set with tag removed.
func WithoutTag(tags []ReadingTag, tag ReadingTag) []ReadingTag {
	out := make([]ReadingTag, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// Recommendation is a provisional comic suggestion extracted from Archivist
// text. Only the title is required; everything else is a hint. It lives only
// between response parsing and enrichment.
type Recommendation struct {
	Title      string `json:"title"`
	Series     string `json:"series,omitempty"`
	Writer     string `json:"writer,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	Year       int    `json:"year,omitempty"`
	CoverURL   string `json:"coverUrl,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// ReadingContext is a derived snapshot of a user's collection, rebuilt in
// full on every request and injected into the Archivist prompt.
type ReadingContext struct {
	RecentReads      []ComicRecord `json:"recentReads"`      // most recent first, cap 20
	FavoriteCreators []string      `json:"favoriteCreators"` // frequency ranked, cap 10
	CurrentlyReading []ComicRecord `json:"currentlyReading"` // cap 5
	TopRated         []ComicRecord `json:"topRated"`         // rating >= 4, cap 5
	CollectionSize   int           `json:"collectionSize"`
	Stats            ReadingStats  `json:"stats"`
}

type ReadingStats struct {
	TotalRead          int      `json:"totalRead"`
	AverageRating      float64  `json:"averageRating"`      // rounded to 1 decimal
	FavoritePublishers []string `json:"favoritePublishers"` // cap 5
	FavoriteGenres     []string `json:"favoriteGenres"`     // no genre data source, always empty
	ReadingStreak      int      `json:"readingStreak"`      // consecutive calendar days
	MostReadCreators   []string `json:"mostReadCreators"`   // cap 10
}

// Conversation is one Archivist chat thread.
type Conversation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Title         string     `json:"title"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Message is a persisted chat turn. Assistant turns may carry the reading
// context snapshot that was used to generate them. Messages are append-only.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	UserID         string          `json:"userId"`
	Role           string          `json:"role"` // user | assistant
	Content        string          `json:"content"`
	Context        *ReadingContext `json:"context,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ComicList is a user-curated, ordered list of collection records.
type ComicList struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RecordIDs   []string  `json:"recordIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
