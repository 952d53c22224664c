package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"comicshelf/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and single-node
// development setups; errors are always nil but stay on the signatures so it
// satisfies Store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]domain.User // key: user ID
	email         map[string]string      // email -> user ID
	records       map[string]domain.ComicRecord
	recordOrder   []string
	lists         map[string]domain.ComicList
	listOrder     []string
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message // key: conversation ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		email:         make(map[string]string),
		records:       make(map[string]domain.ComicRecord),
		lists:         make(map[string]domain.ComicList),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
	}
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// UserCount returns number of users.
func (m *MemoryStore) UserCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// SaveRecord stores or replaces a collection record and tracks insertion order.
func (m *MemoryStore) SaveRecord(r domain.ComicRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[r.ID]; !exists {
		m.recordOrder = append(m.recordOrder, r.ID)
	}
	m.records[r.ID] = r
	return nil
}

// GetRecord retrieves a record by ID.
func (m *MemoryStore) GetRecord(id string) (domain.ComicRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok, nil
}

// ListRecordsByOwner returns the owner's records in insertion order.
func (m *MemoryStore) ListRecordsByOwner(ownerID string) ([]domain.ComicRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ComicRecord, 0, len(m.recordOrder))
	for _, id := range m.recordOrder {
		if r, ok := m.records[id]; ok && r.OwnerID == ownerID {
			res = append(res, r)
		}
	}
	return res, nil
}

// ListRecordsByOwnerTag returns the owner's records carrying the given tag.
func (m *MemoryStore) ListRecordsByOwnerTag(ownerID string, tag domain.ReadingTag) ([]domain.ComicRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ComicRecord, 0, len(m.recordOrder))
	for _, id := range m.recordOrder {
		if r, ok := m.records[id]; ok && r.OwnerID == ownerID && r.HasTag(tag) {
			res = append(res, r)
		}
	}
	return res, nil
}

// DeleteRecord removes a record.
func (m *MemoryStore) DeleteRecord(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	filtered := m.recordOrder[:0]
	for _, item := range m.recordOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.recordOrder = filtered
	return nil
}

// SaveList stores or replaces a curated list.
func (m *MemoryStore) SaveList(l domain.ComicList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.lists[l.ID]; !exists {
		m.listOrder = append(m.listOrder, l.ID)
	}
	m.lists[l.ID] = l
	return nil
}

// GetList retrieves a curated list by ID.
func (m *MemoryStore) GetList(id string) (domain.ComicList, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lists[id]
	return l, ok, nil
}

// ListListsByOwner returns the owner's lists in insertion order.
func (m *MemoryStore) ListListsByOwner(ownerID string) ([]domain.ComicList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ComicList, 0, len(m.listOrder))
	for _, id := range m.listOrder {
		if l, ok := m.lists[id]; ok && l.OwnerID == ownerID {
			res = append(res, l)
		}
	}
	return res, nil
}

// DeleteList removes a curated list.
func (m *MemoryStore) DeleteList(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, id)
	filtered := m.listOrder[:0]
	for _, item := range m.listOrder {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.listOrder = filtered
	return nil
}

// CreateConversation creates a new conversation.
func (m *MemoryStore) CreateConversation(c domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[c.ID] = c
	return nil
}

// GetConversation returns one conversation by ID.
func (m *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	return c, ok, nil
}

// ListConversationsByUser returns the user's conversations, most recent
// activity first.
func (m *MemoryStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	res := make([]domain.Conversation, 0)
	for _, c := range m.conversations {
		if c.UserID == userID {
			res = append(res, c)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return conversationActivity(res[i]).After(conversationActivity(res[j]))
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func conversationActivity(c domain.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.UpdatedAt
}

// UpdateConversation refreshes title and last-message timestamp.
func (m *MemoryStore) UpdateConversation(id string, title string, lastMessageAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil
	}
	if strings.TrimSpace(title) != "" {
		c.Title = strings.TrimSpace(title)
	}
	if !lastMessageAt.IsZero() {
		utc := lastMessageAt.UTC()
		c.LastMessageAt = &utc
	}
	c.UpdatedAt = time.Now().UTC()
	m.conversations[id] = c
	return nil
}

// DeleteConversation removes a conversation and its messages.
func (m *MemoryStore) DeleteConversation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

// AppendMessage records a chat turn.
func (m *MemoryStore) AppendMessage(conversationID string, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ConversationID = conversationID
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return nil
}

// ListMessages returns messages in append order.
func (m *MemoryStore) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
