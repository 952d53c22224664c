package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"comicshelf/pkg/domain"
)

const migrateLockID int64 = 91537215

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent service replicas do not race each other on startup.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &RecordModel{}, &ListModel{}, &ConversationModel{}, &MessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				DELETE FROM message_models m
				WHERE NOT EXISTS (SELECT 1 FROM conversation_models c WHERE c.id = m.conversation_id);
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'message_models'
					AND constraint_name = 'message_models_conversation_id_fkey'
				) THEN
					ALTER TABLE message_models
					ADD CONSTRAINT message_models_conversation_id_fkey
					FOREIGN KEY (conversation_id) REFERENCES conversation_models(id) ON DELETE CASCADE;
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure conversation foreign keys: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveRecord stores or updates a collection record.
func (s *GormStore) SaveRecord(r domain.ComicRecord) error {
	model := recordToModel(r)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_id", "title", "series", "writer", "artist", "publisher", "year",
			"description", "cover_url", "tags", "rating", "last_read_at", "updated_at",
		}),
	}).Create(&model).Error
}

// GetRecord retrieves a collection record.
func (s *GormStore) GetRecord(id string) (domain.ComicRecord, bool, error) {
	var model RecordModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ComicRecord{}, false, nil
		}
		return domain.ComicRecord{}, false, err
	}
	return recordFromModel(model), true, nil
}

// ListRecordsByOwner returns the owner's collection ordered by created_at.
func (s *GormStore) ListRecordsByOwner(ownerID string) ([]domain.ComicRecord, error) {
	return s.listRecords("created_at ASC", "owner_id = ?", ownerID)
}

// ListRecordsByOwnerTag returns the owner's records carrying the given tag.
func (s *GormStore) ListRecordsByOwnerTag(ownerID string, tag domain.ReadingTag) ([]domain.ComicRecord, error) {
	var models []RecordModel
	if err := s.db.Order("created_at ASC").
		Where("owner_id = ?", ownerID).
		Where(datatypes.JSONArrayQuery("tags").Contains(string(tag))).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return recordsFromModels(models), nil
}

func (s *GormStore) listRecords(order string, conds ...any) ([]domain.ComicRecord, error) {
	var models []RecordModel
	tx := s.db.Order(order)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return recordsFromModels(models), nil
}

// DeleteRecord removes a record. Curated lists may still reference the ID;
// readers resolve list entries against the collection and skip missing ones.
func (s *GormStore) DeleteRecord(id string) error {
	return s.db.Delete(&RecordModel{}, "id = ?", id).Error
}

// SaveList stores or updates a curated list.
func (s *GormStore) SaveList(l domain.ComicList) error {
	model := listToModel(l)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "name", "description", "record_ids", "updated_at"}),
	}).Create(&model).Error
}

// GetList retrieves a curated list.
func (s *GormStore) GetList(id string) (domain.ComicList, bool, error) {
	var model ListModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ComicList{}, false, nil
		}
		return domain.ComicList{}, false, err
	}
	return listFromModel(model), true, nil
}

// ListListsByOwner returns the owner's curated lists ordered by created_at.
func (s *GormStore) ListListsByOwner(ownerID string) ([]domain.ComicList, error) {
	var models []ListModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	lists := make([]domain.ComicList, 0, len(models))
	for _, m := range models {
		lists = append(lists, listFromModel(m))
	}
	return lists, nil
}

// DeleteList removes a curated list.
func (s *GormStore) DeleteList(id string) error {
	return s.db.Delete(&ListModel{}, "id = ?", id).Error
}

// CreateConversation creates a new conversation record.
func (s *GormStore) CreateConversation(conversation domain.Conversation) error {
	model := conversationToModel(conversation)
	return s.db.Create(&model).Error
}

// GetConversation returns one conversation by ID.
func (s *GormStore) GetConversation(id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversationsByUser returns latest conversations of a user.
func (s *GormStore) ListConversationsByUser(userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ConversationModel
	if err := s.db.Where("user_id = ?", userID).
		Order("last_message_at DESC NULLS LAST").
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	items := make([]domain.Conversation, 0, len(models))
	for _, model := range models {
		items = append(items, conversationFromModel(model))
	}
	return items, nil
}

// UpdateConversation refreshes title and last-message timestamp.
func (s *GormStore) UpdateConversation(id string, title string, lastMessageAt time.Time) error {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(title) != "" {
		updates["title"] = strings.TrimSpace(title)
	}
	if !lastMessageAt.IsZero() {
		utc := lastMessageAt.UTC()
		updates["last_message_at"] = &utc
	}
	return s.db.Model(&ConversationModel{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteConversation removes a conversation and its messages.
func (s *GormStore) DeleteConversation(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MessageModel{}, "conversation_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ConversationModel{}, "id = ?", id).Error
	})
}

// AppendMessage records a chat turn. Messages are append-only.
func (s *GormStore) AppendMessage(conversationID string, msg domain.Message) error {
	model := messageToModel(msg)
	model.ConversationID = conversationID
	return s.db.Create(&model).Error
}

// ListMessages returns messages for a conversation in chronological order.
func (s *GormStore) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("conversation_id = ?", conversationID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, model := range models {
		msgs = append(msgs, messageFromModel(model))
	}
	return msgs, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func recordToModel(r domain.ComicRecord) RecordModel {
	tags := r.Tags
	if tags == nil {
		tags = []domain.ReadingTag{}
	}
	rawTags, _ := json.Marshal(tags)
	return RecordModel{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Series:      r.Series,
		Writer:      r.Writer,
		Artist:      r.Artist,
		Publisher:   r.Publisher,
		Year:        r.Year,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Tags:        rawTags,
		Rating:      r.Rating,
		LastReadAt:  r.LastReadAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordFromModel(m RecordModel) domain.ComicRecord {
	tags := []domain.ReadingTag{}
	if len(m.Tags) > 0 {
		_ = json.Unmarshal(m.Tags, &tags)
	}
	return domain.ComicRecord{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Series:      m.Series,
		Writer:      m.Writer,
		Artist:      m.Artist,
		Publisher:   m.Publisher,
		Year:        m.Year,
		Description: m.Description,
		CoverURL:    m.CoverURL,
		Tags:        tags,
		Rating:      m.Rating,
		LastReadAt:  m.LastReadAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func recordsFromModels(models []RecordModel) []domain.ComicRecord {
	records := make([]domain.ComicRecord, 0, len(models))
	for _, m := range models {
		records = append(records, recordFromModel(m))
	}
	return records
}

func listToModel(l domain.ComicList) ListModel {
	ids := l.RecordIDs
	if ids == nil {
		ids = []string{}
	}
	rawIDs, _ := json.Marshal(ids)
	return ListModel{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Name:        l.Name,
		Description: l.Description,
		RecordIDs:   rawIDs,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func listFromModel(m ListModel) domain.ComicList {
	ids := []string{}
	if len(m.RecordIDs) > 0 {
		_ = json.Unmarshal(m.RecordIDs, &ids)
	}
	return domain.ComicList{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		RecordIDs:   ids,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:            m.ID,
		UserID:        m.UserID,
		Title:         m.Title,
		LastMessageAt: m.LastMessageAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	var rawContext datatypes.JSON
	if msg.Context != nil {
		rawContext, _ = json.Marshal(msg.Context)
	}
	return MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		Role:           msg.Role,
		Content:        msg.Content,
		Context:        rawContext,
		CreatedAt:      msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	var readingContext *domain.ReadingContext
	if len(m.Context) > 0 {
		var rc domain.ReadingContext
		if err := json.Unmarshal(m.Context, &rc); err == nil {
			readingContext = &rc
		}
	}
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		UserID:         m.UserID,
		Role:           m.Role,
		Content:        m.Content,
		Context:        readingContext,
		CreatedAt:      m.CreatedAt,
	}
}
