package auth

import (
	"testing"
	"time"
)

func TestSessionIssueAndVerify(t *testing.T) {
	signer, err := NewSessionSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("subject = %q", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Fatalf("token should carry a unique jti")
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("token expired immediately")
	}
}

func TestSessionVerifyWrongSecret(t *testing.T) {
	signer, _ := NewSessionSigner("secret-a", time.Hour)
	other, _ := NewSessionSigner("secret-b", time.Hour)
	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatalf("token signed with another secret must be rejected")
	}
}

func TestSessionVerifyExpired(t *testing.T) {
	signer, _ := NewSessionSigner("secret", time.Nanosecond)
	token, err := signer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := signer.Verify(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestNewSessionSignerRequiresSecret(t *testing.T) {
	if _, err := NewSessionSigner("  ", time.Hour); err == nil {
		t.Fatalf("empty secret should be rejected")
	}
}
