package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"comicshelf/internal/util"
	"comicshelf/pkg/auth"
	"comicshelf/pkg/domain"
	"comicshelf/pkg/events"
	"comicshelf/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionSecret string
	SessionTTL    time.Duration
	Store         store.Store
	Revoker       store.TokenRevoker
	Events        events.Publisher
}

// App is the core application service wiring together storage and auth logic.
type App struct {
	store   store.Store
	signer  *auth.SessionSigner
	revoker store.TokenRevoker
	events  events.Publisher
}

// New constructs the application with database storage and session signing.
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

	signer, err := auth.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	revoker := cfg.Revoker
	if revoker == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
	}

	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &App{
		store:   dataStore,
		signer:  signer,
		revoker: revoker,
		events:  publisher,
	}, nil
}

// SignUp registers a new user and issues a session token. The first account
// on a fresh install becomes the admin.
func (a *App) SignUp(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	role := domain.RoleUser
	count, err := a.store.UserCount()
	if err != nil {
		return domain.User{}, "", fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	a.publish(events.Event{
		Topic:  events.TopicUserSignup,
		UserID: user.ID,
		Payload: map[string]any{
			"email": user.Email,
			"role":  string(user.Role),
		},
	})
	token, err := a.signer.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.signer.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the session token until its natural expiry.
func (a *App) Logout(token string) error {
	claims, err := a.signer.Verify(token)
	if err != nil {
		return ErrInvalidToken
	}
	ttl := time.Until(claims.ExpiresAt)
	return a.revoker.Revoke(claims.TokenID, ttl)
}

// UserFromToken resolves a user from a session token, rejecting revoked
// sessions.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	claims, err := a.signer.Verify(token)
	if err != nil {
		return domain.User{}, false
	}
	revoked, err := a.revoker.IsRevoked(claims.TokenID)
	if err != nil || revoked {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(claims.UserID)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

func (a *App) publish(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.events.Publish(ctx, event); err != nil {
		slog.Warn("publish event failed", "topic", event.Topic, "err", err)
	}
}
