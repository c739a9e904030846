package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func emailServer(t *testing.T, wantToken string, status int, body string, hits *int) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*hits++
		mu.Unlock()
		if got := r.Header.Get("Authorization"); got != "Bearer "+wantToken {
			t.Errorf("Authorization header: %q", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestPrimaryVerifiedEmail_SelectsPrimaryVerified(t *testing.T) {
	hits := 0
	srv := emailServer(t, "tok", http.StatusOK, `[
		{"email":"old@example.com","primary":false,"verified":true},
		{"email":"unverified@example.com","primary":true,"verified":false},
		{"email":"real@example.com","primary":true,"verified":true}
	]`, &hits)
	defer srv.Close()

	// The unverified primary above must be skipped even though it comes first.
	c := New(Options{Endpoint: srv.URL})
	got, err := c.PrimaryVerifiedEmail(context.Background(), "tok")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got != "real@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestPrimaryVerifiedEmail_NoUsableAddress(t *testing.T) {
	hits := 0
	srv := emailServer(t, "tok", http.StatusOK, `[
		{"email":"secondary@example.com","primary":false,"verified":true},
		{"email":"primary@example.com","primary":true,"verified":false}
	]`, &hits)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL})
	_, err := c.PrimaryVerifiedEmail(context.Background(), "tok")
	if !errors.Is(err, ErrNoVerifiedEmail) {
		t.Fatalf("expected ErrNoVerifiedEmail, got %v", err)
	}
}

func TestPrimaryVerifiedEmail_UpstreamError(t *testing.T) {
	hits := 0
	srv := emailServer(t, "tok", http.StatusUnauthorized, `{"message":"Bad credentials"}`, &hits)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL})
	if _, err := c.PrimaryVerifiedEmail(context.Background(), "tok"); err == nil {
		t.Fatal("expected error on 401")
	}
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Set(key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
}

func TestPrimaryVerifiedEmail_CachesPositiveResult(t *testing.T) {
	hits := 0
	srv := emailServer(t, "tok", http.StatusOK,
		`[{"email":"real@example.com","primary":true,"verified":true}]`, &hits)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, Cache: &mapCache{m: make(map[string][]byte)}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.PrimaryVerifiedEmail(ctx, "tok")
		if err != nil || got != "real@example.com" {
			t.Fatalf("call %d: %q %v", i, got, err)
		}
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestListEmails_BadJSON(t *testing.T) {
	hits := 0
	srv := emailServer(t, "tok", http.StatusOK, `{not json`, &hits)
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL})
	if _, err := c.ListEmails(context.Background(), "tok"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTokenKey_DoesNotLeakToken(t *testing.T) {
	key := tokenKey("gho_supersecret")
	if len(key) == 0 {
		t.Fatal("empty key")
	}
	for i := 0; i+4 <= len("gho_supersecret"); i++ {
		// No substring of the token may survive in the key.
		if sub := "gho_supersecret"[i : i+4]; strings.Contains(key, sub) {
			t.Fatalf("key %q leaks token fragment %q", key, sub)
		}
	}
}
