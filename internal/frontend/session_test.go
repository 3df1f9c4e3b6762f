package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]string)}
}

func (s *memSessionStore) Create(_ context.Context, token string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.sessions[id] = token
	return id, nil
}

func (s *memSessionStore) Get(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.sessions[id]
	if !ok {
		return "", ErrNoSession
	}
	return token, nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func TestSessionManager_RoundTrip(t *testing.T) {
	store := newMemSessionStore()
	manager := NewSessionManager(store, testHashKey, time.Hour)

	app := fiber.New()
	app.Post("/begin", func(c *fiber.Ctx) error {
		return manager.Begin(c, "bearer-token-xyz")
	})
	app.Get("/token", func(c *fiber.Ctx) error {
		token, err := manager.Token(c)
		if err != nil {
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.SendString(token)
	})
	app.Post("/end", func(c *fiber.Ctx) error {
		return manager.End(c)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/begin", nil))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	resp.Body.Close()

	cookie := findSessionCookie(t, resp)
	if cookie.Value == "" {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if strings.Contains(cookie.Value, "bearer-token-xyz") {
		t.Error("token leaked into the cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	body := readAll(t, resp)
	if body != "bearer-token-xyz" {
		t.Errorf("resolved token = %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/end", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("token after end: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("session survived logout: status %d", resp.StatusCode)
	}
}

func TestSessionManager_RejectsTamperedCookie(t *testing.T) {
	manager := NewSessionManager(newMemSessionStore(), testHashKey, time.Hour)

	app := fiber.New()
	app.Get("/token", func(c *fiber.Ctx) error {
		if _, err := manager.Token(c); err != nil {
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "forged-value"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("forged cookie accepted: status %d", resp.StatusCode)
	}
}

func TestSessionManager_DifferentHashKeyInvalidatesCookies(t *testing.T) {
	store := newMemSessionStore()
	first := NewSessionManager(store, testHashKey, time.Hour)
	second := NewSessionManager(store, []byte("another-key-another-key-another!"), time.Hour)

	app := fiber.New()
	app.Post("/begin", func(c *fiber.Ctx) error {
		return first.Begin(c, "token")
	})
	app.Get("/token", func(c *fiber.Ctx) error {
		if _, err := second.Token(c); err != nil {
			return c.SendStatus(http.StatusUnauthorized)
		}
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/begin", nil))
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	resp.Body.Close()
	cookie := findSessionCookie(t, resp)

	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Error("cookie signed with old key accepted after rotation")
	}
}

func findSessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not found")
	return nil
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var sb strings.Builder
	buf := make([]byte, 1024)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}
