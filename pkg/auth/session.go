package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// SessionSigner issues and verifies HS256 session tokens. Each token carries
// a unique jti so individual sessions can be revoked on logout.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionSigner builds a signer. The secret must be non-empty.
func NewSessionSigner(secret string, ttl time.Duration) (*SessionSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("session secret required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionSigner{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed session token for the user.
func (s *SessionSigner) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (s *SessionSigner) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("verify session token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return Claims{}, fmt.Errorf("invalid session token")
	}
	out := Claims{UserID: claims.Subject, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
