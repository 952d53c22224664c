package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryTokenRevoker(t *testing.T) {
	r := NewMemoryTokenRevoker()
	if err := r.Revoke("tok-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := r.IsRevoked("tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("tok-1 should be revoked")
	}
	if revoked, _ := r.IsRevoked("tok-2"); revoked {
		t.Fatalf("tok-2 should not be revoked")
	}
}

func TestMemoryTokenRevokerZeroTTLIsNoop(t *testing.T) {
	r := NewMemoryTokenRevoker()
	if err := r.Revoke("tok-1", 0); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := r.IsRevoked("tok-1"); revoked {
		t.Fatalf("zero ttl revoke should be a no-op")
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	srv := miniredis.RunT(t)
	r := NewRedisTokenRevoker(srv.Addr(), "")

	if err := r.Revoke("tok-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := r.IsRevoked("tok-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("tok-1 should be revoked")
	}

	srv.FastForward(2 * time.Minute)
	if revoked, _ := r.IsRevoked("tok-1"); revoked {
		t.Fatalf("revocation should lapse with the token's ttl")
	}
}
