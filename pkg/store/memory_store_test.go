package store

import (
	"testing"
	"time"

	"comicshelf/pkg/domain"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "u1", Email: "kay@example.com", Role: domain.RoleAdmin}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	ok, err := s.HasUserEmail("kay@example.com")
	if err != nil || !ok {
		t.Fatalf("has email = %v, %v", ok, err)
	}
	got, found, err := s.GetUserByEmail("kay@example.com")
	if err != nil || !found || got.ID != "u1" {
		t.Fatalf("get by email = %+v found=%v err=%v", got, found, err)
	}
	if count, _ := s.UserCount(); count != 1 {
		t.Fatalf("user count = %d", count)
	}
}

func TestMemoryStoreRecordsKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := s.SaveRecord(domain.ComicRecord{ID: id, OwnerID: "u1", Title: id}); err != nil {
			t.Fatalf("save record: %v", err)
		}
	}
	// re-save must not duplicate or reorder
	if err := s.SaveRecord(domain.ComicRecord{ID: "r1", OwnerID: "u1", Title: "r1 updated"}); err != nil {
		t.Fatalf("re-save record: %v", err)
	}

	records, err := s.ListRecordsByOwner("u1")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].ID != "r1" || records[0].Title != "r1 updated" {
		t.Fatalf("first record = %+v", records[0])
	}

	if err := s.DeleteRecord("r2"); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	records, _ = s.ListRecordsByOwner("u1")
	if len(records) != 2 || records[1].ID != "r3" {
		t.Fatalf("after delete: %+v", records)
	}
}

func TestMemoryStoreRecordsTagFilter(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveRecord(domain.ComicRecord{ID: "r1", OwnerID: "u1", Tags: []domain.ReadingTag{domain.TagRead}})
	_ = s.SaveRecord(domain.ComicRecord{ID: "r2", OwnerID: "u1", Tags: []domain.ReadingTag{domain.TagWant}})
	_ = s.SaveRecord(domain.ComicRecord{ID: "r3", OwnerID: "other", Tags: []domain.ReadingTag{domain.TagRead}})

	records, err := s.ListRecordsByOwnerTag("u1", domain.TagRead)
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(records) != 1 || records[0].ID != "r1" {
		t.Fatalf("tag filter returned %+v", records)
	}
}

func TestMemoryStoreConversations(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	if err := s.CreateConversation(domain.Conversation{ID: "c1", UserID: "u1", CreatedAt: now}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	_ = s.AppendMessage("c1", domain.Message{ID: "m1", UserID: "u1", Role: "user", Content: "hi"})
	_ = s.AppendMessage("c1", domain.Message{ID: "m2", UserID: "u1", Role: "assistant", Content: "hello"})

	msgs, err := s.ListMessages("c1", 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("messages out of order: %+v", msgs)
	}

	if err := s.UpdateConversation("c1", "saga talk", now.Add(time.Minute)); err != nil {
		t.Fatalf("update conversation: %v", err)
	}
	c, found, _ := s.GetConversation("c1")
	if !found || c.Title != "saga talk" || c.LastMessageAt == nil {
		t.Fatalf("conversation after update: %+v", c)
	}

	if err := s.DeleteConversation("c1"); err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	if _, found, _ := s.GetConversation("c1"); found {
		t.Fatalf("conversation should be gone")
	}
	if msgs, _ := s.ListMessages("c1", 0); len(msgs) != 0 {
		t.Fatalf("messages should be gone with the conversation")
	}
}

func TestMemoryStoreListsResolveAgainstCollection(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveList(domain.ComicList{ID: "l1", OwnerID: "u1", Name: "essentials", RecordIDs: []string{"r1", "r2"}})

	lists, err := s.ListListsByOwner("u1")
	if err != nil || len(lists) != 1 {
		t.Fatalf("lists = %+v err=%v", lists, err)
	}
	if err := s.DeleteList("l1"); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if lists, _ := s.ListListsByOwner("u1"); len(lists) != 0 {
		t.Fatalf("list should be gone")
	}
}
