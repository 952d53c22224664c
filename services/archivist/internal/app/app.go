package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"comicshelf/pkg/ai"
	"comicshelf/pkg/domain"
	"comicshelf/pkg/enrich"
	"comicshelf/pkg/metadata"
	"comicshelf/pkg/readingctx"
	"comicshelf/pkg/storage"
	"comicshelf/pkg/store"
)

const defaultConversationTitle = "New conversation"

// apologyMessage replaces the reply when the chat provider fails. Raw
// provider errors never reach the client.
const apologyMessage = "I'm having trouble reaching the archives right now. Please try again in a moment."

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	Store           store.Store
	Chat            ai.ChatClient
	Image           ai.ImageClient
	Searcher        enrich.Searcher
	Cache           enrich.ResultCache
	Covers          storage.CoverStore
	GeminiAPIKey    string
	ChatModel       string
	ImageModel      string
	MetadataBaseURL string
	MetadataAPIKey  string
	RedisAddr       string
	RedisPassword   string
	HistoryLimit    int
}

// App is the core application service wiring storage, the chat provider, and
// the recommendation enrichment pipeline.
type App struct {
	store        store.Store
	chat         ai.ChatClient
	image        ai.ImageClient
	covers       storage.CoverStore
	orchestrator *enrich.Orchestrator
	chatModel    string
	imageModel   string
	historyLimit int
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
	if cfg.ChatModel == "" {
		return nil, fmt.Errorf("chat model required")
	}

	chat := cfg.Chat
	image := cfg.Image
	if chat == nil || image == nil {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		if chat == nil {
			chat = gemini
		}
		if image == nil {
			image = gemini
		}
	}

	searcher := cfg.Searcher
	if searcher == nil {
		client, err := metadata.NewClient(cfg.MetadataBaseURL, cfg.MetadataAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init metadata client: %w", err)
		}
		searcher = client
	}
	cache := cfg.Cache
	if cache == nil && cfg.RedisAddr != "" {
		cache = enrich.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, "", enrich.DefaultCacheTTL)
	}
	orchestrator, err := enrich.NewOrchestrator(searcher, cache)
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit < 0 {
		historyLimit = 0
	}

	return &App{
		store:        dataStore,
		chat:         chat,
		image:        image,
		covers:       cfg.Covers,
		orchestrator: orchestrator,
		chatModel:    cfg.ChatModel,
		imageModel:   cfg.ImageModel,
		historyLimit: historyLimit,
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

// ChatResult is the outcome of one archivist turn.
type ChatResult struct {
	ConversationID string                `json:"conversationId"`
	Message        string                `json:"message"`
	Comics         []enrich.Result       `json:"comics"`
	Context        domain.ReadingContext `json:"context"`
}

// Chat runs one archivist turn: condense the user's collection into a reading
// context, generate a reply against the conversation history, extract and
// enrich any recommendations, and persist both turns. A chat provider failure
// degrades to an apology message; the user's turn is still logged.
func (a *App) Chat(ctx context.Context, user domain.User, conversationID, text string) (ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatResult{}, ErrMessageRequired
	}
	conversation, err := a.ensureConversation(user, conversationID, text)
	if err != nil {
		return ChatResult{}, err
	}

	collection, err := a.store.ListRecordsByOwner(user.ID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("load collection: %w", err)
	}
	readingContext := readingctx.Build(collection)

	turns, err := a.historyTurns(conversation.ID)
	if err != nil {
		return ChatResult{}, err
	}
	turns = append(turns, ai.Turn{Role: "user", Text: text})

	result := ChatResult{ConversationID: conversation.ID, Context: readingContext}
	reply, err := a.chat.GenerateReply(ctx, a.chatModel, buildSystemPrompt(readingContext), turns)
	if err != nil {
		slog.Warn("chat provider failed", "conversation", conversation.ID, "err", err)
		result.Message = apologyMessage
		result.Comics = []enrich.Result{}
		if err := a.appendTurns(conversation, user, text, apologyMessage, nil); err != nil {
			return ChatResult{}, err
		}
		return result, nil
	}

	parsed := parseArchivistReply(reply)
	result.Message = parsed.message
	result.Comics = a.orchestrator.EnrichBatch(ctx, parsed.recommendations)
	if result.Comics == nil {
		result.Comics = []enrich.Result{}
	}
	if err := a.appendTurns(conversation, user, text, parsed.message, &readingContext); err != nil {
		return ChatResult{}, err
	}
	return result, nil
}

// GenerateCover renders a cover image for a record that has none, stores it,
// and returns its URL. Provider or storage failure yields an empty URL, not
// an error.
func (a *App) GenerateCover(ctx context.Context, title, series, publisher string) string {
	if a.imageModel == "" || a.covers == nil {
		return ""
	}
	prompt := coverPrompt(title, series, publisher)
	data, err := a.image.GenerateImage(ctx, a.imageModel, prompt)
	if err != nil {
		slog.Warn("cover generation failed", "title", title, "err", err)
		return ""
	}
	coverID := "gen-" + uuid.NewString()
	if err := a.covers.PutCover(ctx, coverID, data, "image/png"); err != nil {
		slog.Warn("cover upload failed", "title", title, "err", err)
		return ""
	}
	url, err := a.covers.CoverURL(ctx, coverID)
	if err != nil {
		slog.Warn("cover url failed", "title", title, "err", err)
		return ""
	}
	return url
}

// ListConversations lists recent conversations for the current user.
func (a *App) ListConversations(user domain.User, limit int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	items, err := a.store.ListConversationsByUser(user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return items, nil
}

// ListMessages lists conversation messages in chronological order.
func (a *App) ListMessages(user domain.User, conversationID string, limit int) ([]domain.Message, error) {
	if _, err := a.ownedConversation(user, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	items, err := a.store.ListMessages(conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return items, nil
}

// DeleteConversation removes a conversation and its messages.
func (a *App) DeleteConversation(user domain.User, conversationID string) error {
	if _, err := a.ownedConversation(user, conversationID); err != nil {
		return err
	}
	if err := a.store.DeleteConversation(conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (a *App) ownedConversation(user domain.User, conversationID string) (domain.Conversation, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return domain.Conversation{}, ErrConversationNotFound
	}
	conversation, ok, err := a.store.GetConversation(conversationID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return domain.Conversation{}, ErrConversationNotFound
	}
	if conversation.UserID != user.ID && user.Role != domain.RoleAdmin {
		return domain.Conversation{}, ErrConversationForbidden
	}
	return conversation, nil
}

func (a *App) ensureConversation(user domain.User, conversationID, firstMessage string) (domain.Conversation, error) {
	if strings.TrimSpace(conversationID) != "" {
		return a.ownedConversation(user, conversationID)
	}
	now := time.Now().UTC()
	conversation := domain.Conversation{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Title:         conversationTitle(firstMessage),
		LastMessageAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.CreateConversation(conversation); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

func (a *App) historyTurns(conversationID string) ([]ai.Turn, error) {
	if a.historyLimit <= 0 {
		return nil, nil
	}
	messages, err := a.store.ListMessages(conversationID, a.historyLimit*2)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	turns := make([]ai.Turn, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		turns = append(turns, ai.Turn{Role: role, Text: msg.Content})
	}
	return turns, nil
}

func (a *App) appendTurns(conversation domain.Conversation, user domain.User, userText, assistantText string, snapshot *domain.ReadingContext) error {
	userTime := time.Now().UTC()
	if err := a.store.AppendMessage(conversation.ID, domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		UserID:         user.ID,
		Role:           "user",
		Content:        userText,
		CreatedAt:      userTime,
	}); err != nil {
		return fmt.Errorf("save user message: %w", err)
	}
	assistantTime := time.Now().UTC()
	if err := a.store.AppendMessage(conversation.ID, domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversation.ID,
		UserID:         user.ID,
		Role:           "assistant",
		Content:        assistantText,
		Context:        snapshot,
		CreatedAt:      assistantTime,
	}); err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}
	if err := a.store.UpdateConversation(conversation.ID, "", assistantTime); err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	return nil
}

func buildSystemPrompt(readingContext domain.ReadingContext) string {
	profile, err := json.Marshal(readingContext)
	if err != nil {
		profile = []byte("{}")
	}
	var sb strings.Builder
	sb.WriteString("You are the Archivist, a knowledgeable and enthusiastic comic book curator. ")
	sb.WriteString("Use the reader profile below to tailor your recommendations and conversation.\n\n")
	sb.WriteString("Reader profile:\n")
	sb.Write(profile)
	sb.WriteString("\n\nWhen you recommend specific comics, end your reply with a line containing ")
	sb.WriteString("exactly \"RECOMMENDATIONS:\" followed by a JSON object of the form ")
	sb.WriteString(`{"comics":[{"title":"...","series":"...","writer":"...","artist":"...","publisher":"...","year":2000}]}. `)
	sb.WriteString("Omit the block entirely when you are not recommending anything specific.")
	return sb.String()
}

func coverPrompt(title, series, publisher string) string {
	var sb strings.Builder
	sb.WriteString("Comic book cover art for \"")
	sb.WriteString(title)
	sb.WriteString("\"")
	if series != "" {
		sb.WriteString(", part of the series ")
		sb.WriteString(series)
	}
	if publisher != "" {
		sb.WriteString(", in the house style of ")
		sb.WriteString(publisher)
	}
	sb.WriteString(". Dramatic composition, bold title lettering, no watermarks.")
	return sb.String()
}

func conversationTitle(firstMessage string) string {
	text := strings.TrimSpace(strings.ReplaceAll(firstMessage, "\n", " "))
	if text == "" {
		return defaultConversationTitle
	}
	runes := []rune(text)
	if len(runes) > 48 {
		return string(runes[:48]) + "…"
	}
	return text
}
