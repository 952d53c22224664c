package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"comicshelf/pkg/domain"
	"comicshelf/pkg/events"
	"comicshelf/pkg/store"
	"comicshelf/services/auth/internal/app"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	appCore, err := app.New(app.Config{
		Store:         store.NewMemoryStore(),
		Revoker:       store.NewMemoryTokenRevoker(),
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		Events:        events.NopPublisher{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: appCore})
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSignupLoginMe(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	rec := postJSON(t, router, "/auth/signup", map[string]string{
		"email":    "first@example.com",
		"password": "long enough password",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body=%s", rec.Code, rec.Body.String())
	}
	var signup struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &signup); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if signup.User.Role != domain.RoleAdmin {
		t.Fatalf("first user should be admin, got %q", signup.User.Role)
	}

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "first@example.com",
		"password": "long enough password",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signup.Token)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	payload := map[string]string{"email": "dup@example.com", "password": "long enough password"}
	if rec := postJSON(t, router, "/auth/signup", payload, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first signup = %d", rec.Code)
	}
	if rec := postJSON(t, router, "/auth/signup", payload, ""); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d, want conflict", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	_ = postJSON(t, router, "/auth/signup", map[string]string{
		"email": "kay@example.com", "password": "long enough password",
	}, "")
	rec := postJSON(t, router, "/auth/login", map[string]string{
		"email": "kay@example.com", "password": "wrong password!!",
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password login = %d", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()
	rec := postJSON(t, router, "/auth/signup", map[string]string{
		"email": "kay@example.com", "password": "long enough password",
	}, "")
	var signup struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &signup)

	if rec := postJSON(t, router, "/auth/logout", nil, signup.Token); rec.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signup.Token)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	if me.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d, want unauthorized", me.Code)
	}
}

func TestMeRequiresToken(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token = %d", rec.Code)
	}
}
