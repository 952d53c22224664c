package store

import (
	"time"

	"comicshelf/pkg/domain"
)

// Store defines persistence operations for users, collection records,
// curated lists, and archivist conversations.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)

	// collection records
	SaveRecord(domain.ComicRecord) error
	GetRecord(id string) (domain.ComicRecord, bool, error)
	ListRecordsByOwner(ownerID string) ([]domain.ComicRecord, error)
	ListRecordsByOwnerTag(ownerID string, tag domain.ReadingTag) ([]domain.ComicRecord, error)
	DeleteRecord(id string) error

	// curated lists
	SaveList(domain.ComicList) error
	GetList(id string) (domain.ComicList, bool, error)
	ListListsByOwner(ownerID string) ([]domain.ComicList, error)
	DeleteList(id string) error

	// conversations
	CreateConversation(domain.Conversation) error
	GetConversation(id string) (domain.Conversation, bool, error)
	ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error)
	UpdateConversation(id string, title string, lastMessageAt time.Time) error
	DeleteConversation(id string) error
	AppendMessage(conversationID string, msg domain.Message) error
	ListMessages(conversationID string, limit int) ([]domain.Message, error)
}
