package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"comicshelf/internal/util"
	"comicshelf/pkg/domain"
	"comicshelf/pkg/events"
	"comicshelf/pkg/storage"
	"comicshelf/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Covers      storage.CoverStore
	Events      events.Publisher
}

// App is the core application service for collection management.
type App struct {
	store  store.Store
	covers storage.CoverStore
	events events.Publisher
}

// New constructs the application with database-backed storage.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &App{
		store:  dataStore,
		covers: cfg.Covers,
		events: publisher,
	}, nil
}

// UserByID loads a user for request authentication.
func (a *App) UserByID(id string) (domain.User, bool) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}

// ListRecords returns the user's collection, optionally filtered by tag.
func (a *App) ListRecords(user domain.User, tag domain.ReadingTag) ([]domain.ComicRecord, error) {
	if tag != "" {
		if !domain.ValidTag(tag) {
			return nil, ErrInvalidTag
		}
		return a.store.ListRecordsByOwnerTag(user.ID, tag)
	}
	return a.store.ListRecordsByOwner(user.ID)
}

// GetRecord returns one record owned by the user.
func (a *App) GetRecord(user domain.User, id string) (domain.ComicRecord, error) {
	record, ok, err := a.store.GetRecord(id)
	if err != nil {
		return domain.ComicRecord{}, fmt.Errorf("fetch record: %w", err)
	}
	if !ok {
		return domain.ComicRecord{}, ErrRecordNotFound
	}
	if record.OwnerID != user.ID && user.Role != domain.RoleAdmin {
		return domain.ComicRecord{}, ErrForbidden
	}
	return record, nil
}

// AddRecord saves a record into the user's collection. Records arriving from
// enrichment keep their IDs so re-adding the same suggestion is an update,
// manual entries get a fresh ID.
func (a *App) AddRecord(user domain.User, record domain.ComicRecord) (domain.ComicRecord, error) {
	if strings.TrimSpace(record.Title) == "" {
		return domain.ComicRecord{}, ErrTitleRequired
	}
	for _, tag := range record.Tags {
		if !domain.ValidTag(tag) {
			return domain.ComicRecord{}, ErrInvalidTag
		}
	}
	now := time.Now().UTC()
	if strings.TrimSpace(record.ID) == "" {
		record.ID = util.NewID()
	}
	record.OwnerID = user.ID
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Tags == nil {
		record.Tags = []domain.ReadingTag{}
	}
	if err := a.store.SaveRecord(record); err != nil {
		return domain.ComicRecord{}, fmt.Errorf("save record: %w", err)
	}
	a.publish(events.Event{
		Topic:  events.TopicCollectionAdded,
		UserID: user.ID,
		Payload: map[string]any{
			"recordId": record.ID,
			"title":    record.Title,
		},
	})
	return record, nil
}

// DeleteRecord removes a record from the user's collection.
func (a *App) DeleteRecord(user domain.User, id string) error {
	if _, err := a.GetRecord(user, id); err != nil {
		return err
	}
	if err := a.store.DeleteRecord(id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// ToggleTag adds or removes a reading tag. Tags behave as a set. Toggling
// "read" on stamps LastReadAt and publishes an activity event.
func (a *App) ToggleTag(user domain.User, id string, tag domain.ReadingTag) (domain.ComicRecord, error) {
	if !domain.ValidTag(tag) {
		return domain.ComicRecord{}, ErrInvalidTag
	}
	record, err := a.GetRecord(user, id)
	if err != nil {
		return domain.ComicRecord{}, err
	}
	now := time.Now().UTC()
	if record.HasTag(tag) {
		record.Tags = domain.WithoutTag(record.Tags, tag)
	} else {
		record.Tags = domain.WithTag(record.Tags, tag)
		if tag == domain.TagRead {
			record.LastReadAt = &now
			a.publish(events.Event{
				Topic:  events.TopicCollectionRead,
				UserID: user.ID,
				Payload: map[string]any{
					"recordId": record.ID,
					"title":    record.Title,
				},
			})
		}
	}
	record.UpdatedAt = now
	if err := a.store.SaveRecord(record); err != nil {
		return domain.ComicRecord{}, fmt.Errorf("save record: %w", err)
	}
	return record, nil
}

// SetRating rates a record 1..5.
func (a *App) SetRating(user domain.User, id string, rating int) (domain.ComicRecord, error) {
	if rating < 1 || rating > 5 {
		return domain.ComicRecord{}, ErrInvalidRating
	}
	record, err := a.GetRecord(user, id)
	if err != nil {
		return domain.ComicRecord{}, err
	}
	record.Rating = rating
	record.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRecord(record); err != nil {
		return domain.ComicRecord{}, fmt.Errorf("save record: %w", err)
	}
	return record, nil
}

// SetCover stores the cover image and saves its URL on the record.
func (a *App) SetCover(ctx context.Context, user domain.User, id string, data []byte, contentType string) (domain.ComicRecord, error) {
	if len(data) == 0 {
		return domain.ComicRecord{}, ErrEmptyCoverImage
	}
	if a.covers == nil {
		return domain.ComicRecord{}, fmt.Errorf("cover storage not configured")
	}
	record, err := a.GetRecord(user, id)
	if err != nil {
		return domain.ComicRecord{}, err
	}
	if err := a.covers.PutCover(ctx, record.ID, data, contentType); err != nil {
		return domain.ComicRecord{}, fmt.Errorf("store cover: %w", err)
	}
	url, err := a.covers.CoverURL(ctx, record.ID)
	if err != nil {
		return domain.ComicRecord{}, fmt.Errorf("cover url: %w", err)
	}
	record.CoverURL = url
	record.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveRecord(record); err != nil {
		return domain.ComicRecord{}, fmt.Errorf("save record: %w", err)
	}
	return record, nil
}

// CreateList creates a curated list for the user.
func (a *App) CreateList(user domain.User, name, description string) (domain.ComicList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ComicList{}, ErrNameRequired
	}
	now := time.Now().UTC()
	list := domain.ComicList{
		ID:          util.NewID(),
		OwnerID:     user.ID,
		Name:        name,
		Description: strings.TrimSpace(description),
		RecordIDs:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveList(list); err != nil {
		return domain.ComicList{}, fmt.Errorf("save list: %w", err)
	}
	return list, nil
}

// Lists returns the user's curated lists.
func (a *App) Lists(user domain.User) ([]domain.ComicList, error) {
	return a.store.ListListsByOwner(user.ID)
}

// GetList returns one list with its records resolved against the collection.
// IDs whose records were deleted are skipped.
func (a *App) GetList(user domain.User, id string) (domain.ComicList, []domain.ComicRecord, error) {
	list, err := a.getOwnedList(user, id)
	if err != nil {
		return domain.ComicList{}, nil, err
	}
	records := make([]domain.ComicRecord, 0, len(list.RecordIDs))
	for _, recordID := range list.RecordIDs {
		record, ok, err := a.store.GetRecord(recordID)
		if err != nil {
			return domain.ComicList{}, nil, fmt.Errorf("resolve list record: %w", err)
		}
		if ok {
			records = append(records, record)
		}
	}
	return list, records, nil
}

// AddToList appends a record to a list, ignoring duplicates.
func (a *App) AddToList(user domain.User, listID, recordID string) (domain.ComicList, error) {
	list, err := a.getOwnedList(user, listID)
	if err != nil {
		return domain.ComicList{}, err
	}
	if _, err := a.GetRecord(user, recordID); err != nil {
		return domain.ComicList{}, err
	}
	for _, id := range list.RecordIDs {
		if id == recordID {
			return list, nil
		}
	}
	list.RecordIDs = append(list.RecordIDs, recordID)
	list.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveList(list); err != nil {
		return domain.ComicList{}, fmt.Errorf("save list: %w", err)
	}
	return list, nil
}

// RemoveFromList drops a record from a list.
func (a *App) RemoveFromList(user domain.User, listID, recordID string) (domain.ComicList, error) {
	list, err := a.getOwnedList(user, listID)
	if err != nil {
		return domain.ComicList{}, err
	}
	filtered := make([]string, 0, len(list.RecordIDs))
	for _, id := range list.RecordIDs {
		if id != recordID {
			filtered = append(filtered, id)
		}
	}
	list.RecordIDs = filtered
	list.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveList(list); err != nil {
		return domain.ComicList{}, fmt.Errorf("save list: %w", err)
	}
	return list, nil
}

// DeleteList removes a curated list. Records stay in the collection.
func (a *App) DeleteList(user domain.User, id string) error {
	if _, err := a.getOwnedList(user, id); err != nil {
		return err
	}
	if err := a.store.DeleteList(id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func (a *App) getOwnedList(user domain.User, id string) (domain.ComicList, error) {
	list, ok, err := a.store.GetList(id)
	if err != nil {
		return domain.ComicList{}, fmt.Errorf("fetch list: %w", err)
	}
	if !ok {
		return domain.ComicList{}, ErrListNotFound
	}
	if list.OwnerID != user.ID && user.Role != domain.RoleAdmin {
		return domain.ComicList{}, ErrForbidden
	}
	return list, nil
}

func (a *App) publish(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.events.Publish(ctx, event); err != nil {
		slog.Warn("publish event failed", "topic", event.Topic, "err", err)
	}
}
