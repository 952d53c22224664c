package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"comicshelf/pkg/domain"
	"comicshelf/pkg/events"
	"comicshelf/pkg/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

type fakeCoverStore struct {
	covers map[string][]byte
}

func newFakeCoverStore() *fakeCoverStore {
	return &fakeCoverStore{covers: map[string][]byte{}}
}

func (f *fakeCoverStore) PutCover(_ context.Context, recordID string, data []byte, _ string) error {
	f.covers[recordID] = data
	return nil
}

func (f *fakeCoverStore) CoverURL(_ context.Context, recordID string) (string, error) {
	if _, ok := f.covers[recordID]; !ok {
		return "", errors.New("no cover")
	}
	return "https://covers.test/" + recordID, nil
}

func (f *fakeCoverStore) DeleteCover(_ context.Context, recordID string) error {
	delete(f.covers, recordID)
	return nil
}

func newTestApp(t *testing.T) (*App, *recordingPublisher, *fakeCoverStore) {
	t.Helper()
	publisher := &recordingPublisher{}
	covers := newFakeCoverStore()
	core, err := New(Config{
		Store:  store.NewMemoryStore(),
		Covers: covers,
		Events: publisher,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return core, publisher, covers
}

var (
	alice = domain.User{ID: "user-alice", Role: domain.RoleUser}
	bob   = domain.User{ID: "user-bob", Role: domain.RoleUser}
)

func TestAddRecordAssignsIDAndTimestamps(t *testing.T) {
	core, publisher, _ := newTestApp(t)

	record, err := core.AddRecord(alice, domain.ComicRecord{Title: "Saga #1"})
	if err != nil {
		t.Fatalf("add record: %v", err)
	}
	if record.ID == "" {
		t.Fatal("expected generated ID")
	}
	if record.OwnerID != alice.ID {
		t.Fatalf("owner = %q", record.OwnerID)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps set")
	}
	if record.Tags == nil {
		t.Fatal("tags should be an empty slice, not nil")
	}
	topics := publisher.topics()
	if len(topics) != 1 || topics[0] != events.TopicCollectionAdded {
		t.Fatalf("published topics = %v", topics)
	}
}

func TestAddRecordKeepsProvidedID(t *testing.T) {
	core, _, _ := newTestApp(t)
	record, err := core.AddRecord(alice, domain.ComicRecord{ID: "gcd-4921", Title: "Hellboy"})
	if err != nil {
		t.Fatalf("add record: %v", err)
	}
	if record.ID != "gcd-4921" {
		t.Fatalf("id = %q, want enrichment id preserved", record.ID)
	}
}

func TestAddRecordRequiresTitle(t *testing.T) {
	core, _, _ := newTestApp(t)
	if _, err := core.AddRecord(alice, domain.ComicRecord{Title: "   "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("err = %v, want ErrTitleRequired", err)
	}
}

func TestGetRecordOwnership(t *testing.T) {
	core, _, _ := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Monstress"})

	if _, err := core.GetRecord(bob, record.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-owner get err = %v, want ErrForbidden", err)
	}
	admin := domain.User{ID: "user-admin", Role: domain.RoleAdmin}
	if _, err := core.GetRecord(admin, record.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := core.GetRecord(alice, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("missing get err = %v, want ErrRecordNotFound", err)
	}
}

func TestToggleTagReadStampsLastReadAt(t *testing.T) {
	core, publisher, _ := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Paper Girls #1"})

	tagged, err := core.ToggleTag(alice, record.ID, domain.TagRead)
	if err != nil {
		t.Fatalf("toggle read: %v", err)
	}
	if !tagged.HasTag(domain.TagRead) {
		t.Fatal("record should carry read tag")
	}
	if tagged.LastReadAt == nil {
		t.Fatal("toggling read on should stamp LastReadAt")
	}
	topics := publisher.topics()
	if len(topics) != 2 || topics[1] != events.TopicCollectionRead {
		t.Fatalf("published topics = %v", topics)
	}

	// Toggling again removes the tag but keeps the read timestamp.
	untagged, err := core.ToggleTag(alice, record.ID, domain.TagRead)
	if err != nil {
		t.Fatalf("toggle read off: %v", err)
	}
	if untagged.HasTag(domain.TagRead) {
		t.Fatal("read tag should be removed")
	}
	if untagged.LastReadAt == nil {
		t.Fatal("LastReadAt should survive untagging")
	}
}

func TestToggleTagSetSemantics(t *testing.T) {
	core, _, _ := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Bone", Tags: []domain.ReadingTag{domain.TagOwned}})

	tagged, err := core.ToggleTag(alice, record.ID, domain.TagOwned)
	if err != nil {
		t.Fatalf("toggle owned: %v", err)
	}
	if len(tagged.Tags) != 0 {
		t.Fatalf("tags = %v, want owned removed", tagged.Tags)
	}
	if _, err := core.ToggleTag(alice, record.ID, "banana"); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("invalid tag err = %v", err)
	}
}

func TestListRecordsFilterByTag(t *testing.T) {
	core, _, _ := newTestApp(t)
	a, _ := core.AddRecord(alice, domain.ComicRecord{Title: "A", Tags: []domain.ReadingTag{domain.TagWant}})
	_, _ = core.AddRecord(alice, domain.ComicRecord{Title: "B"})

	want, err := core.ListRecords(alice, domain.TagWant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(want) != 1 || want[0].ID != a.ID {
		t.Fatalf("filtered records = %+v", want)
	}
	all, _ := core.ListRecords(alice, "")
	if len(all) != 2 {
		t.Fatalf("unfiltered records = %d", len(all))
	}
	if _, err := core.ListRecords(alice, "banana"); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("invalid filter err = %v", err)
	}
}

func TestSetRatingBounds(t *testing.T) {
	core, _, _ := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Sandman"})

	rated, err := core.SetRating(alice, record.ID, 5)
	if err != nil {
		t.Fatalf("set rating: %v", err)
	}
	if rated.Rating != 5 {
		t.Fatalf("rating = %d", rated.Rating)
	}
	for _, bad := range []int{0, 6, -1} {
		if _, err := core.SetRating(alice, record.ID, bad); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d err = %v", bad, err)
		}
	}
}

func TestSetCoverStoresAndLinks(t *testing.T) {
	core, _, covers := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Nimona"})

	updated, err := core.SetCover(context.Background(), alice, record.ID, []byte{0xFF, 0xD8}, "image/jpeg")
	if err != nil {
		t.Fatalf("set cover: %v", err)
	}
	if updated.CoverURL != "https://covers.test/"+record.ID {
		t.Fatalf("cover url = %q", updated.CoverURL)
	}
	if len(covers.covers[record.ID]) != 2 {
		t.Fatal("cover bytes not stored")
	}
	if _, err := core.SetCover(context.Background(), alice, record.ID, nil, "image/jpeg"); !errors.Is(err, ErrEmptyCoverImage) {
		t.Fatalf("empty cover err = %v", err)
	}
}

func TestListsLifecycle(t *testing.T) {
	core, _, _ := newTestApp(t)
	record, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Locke & Key"})

	list, err := core.CreateList(alice, "  Horror  ", "scary stuff")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if list.Name != "Horror" {
		t.Fatalf("name = %q", list.Name)
	}

	list, err = core.AddToList(alice, list.ID, record.ID)
	if err != nil {
		t.Fatalf("add to list: %v", err)
	}
	// Duplicate adds are ignored.
	list, _ = core.AddToList(alice, list.ID, record.ID)
	if len(list.RecordIDs) != 1 {
		t.Fatalf("record ids = %v", list.RecordIDs)
	}

	_, records, err := core.GetList(alice, list.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(records) != 1 || records[0].ID != record.ID {
		t.Fatalf("resolved records = %+v", records)
	}

	list, err = core.RemoveFromList(alice, list.ID, record.ID)
	if err != nil {
		t.Fatalf("remove from list: %v", err)
	}
	if len(list.RecordIDs) != 0 {
		t.Fatalf("record ids after remove = %v", list.RecordIDs)
	}

	if err := core.DeleteList(alice, list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if _, _, err := core.GetList(alice, list.ID); !errors.Is(err, ErrListNotFound) {
		t.Fatalf("get deleted list err = %v", err)
	}
	// Records survive list deletion.
	if _, err := core.GetRecord(alice, record.ID); err != nil {
		t.Fatalf("record after list delete: %v", err)
	}
}

func TestGetListSkipsDeletedRecords(t *testing.T) {
	core, _, _ := newTestApp(t)
	kept, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Kept"})
	gone, _ := core.AddRecord(alice, domain.ComicRecord{Title: "Gone"})
	list, _ := core.CreateList(alice, "Mixed", "")
	_, _ = core.AddToList(alice, list.ID, kept.ID)
	_, _ = core.AddToList(alice, list.ID, gone.ID)

	if err := core.DeleteRecord(alice, gone.ID); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	_, records, err := core.GetList(alice, list.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(records) != 1 || records[0].ID != kept.ID {
		t.Fatalf("resolved records = %+v", records)
	}
}

func TestListOwnership(t *testing.T) {
	core, _, _ := newTestApp(t)
	list, _ := core.CreateList(alice, "Mine", "")
	if _, _, err := core.GetList(bob, list.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-owner list get err = %v", err)
	}
	if err := core.DeleteList(bob, list.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-owner list delete err = %v", err)
	}
}
