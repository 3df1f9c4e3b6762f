package frontend

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newFrontendApp(t *testing.T, authURL, tasksURL string) (*fiber.App, *memSessionStore) {
	t.Helper()
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	store := newMemSessionStore()
	sessions := NewSessionManager(store, testHashKey, time.Hour)
	pages := NewHandlers(
		renderer,
		sessions,
		NewAuthClient(authURL, time.Second),
		NewTaskClient(tasksURL, time.Second),
		zap.NewNop(),
	)

	app := fiber.New()
	app.Get("/login", pages.LoginPage)
	app.Post("/login", pages.Login)
	app.Get("/register", pages.RegisterPage)
	app.Post("/register", pages.Register)
	app.Post("/logout", pages.Logout)
	app.Get("/", pages.TaskList)
	app.Get("/tasks/new", pages.NewTaskPage)
	app.Post("/tasks", pages.CreateTask)
	app.Get("/tasks/:id", pages.TaskDetail)
	return app, store
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test POST %s: %v", path, err)
	}
	return resp
}

func TestLoginFlow_SetsSessionAndRedirects(t *testing.T) {
	authUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"jwt-abc","expires_at":"2026-09-02T00:00:00Z","user":{"id":1,"username":"alice","email":"a@example.com"}}`))
	}))
	defer authUpstream.Close()

	app, store := newFrontendApp(t, authUpstream.URL, "http://127.0.0.1:1")

	resp := postForm(t, app, "/login", url.Values{"username": {"alice"}, "password": {"pw"}}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("redirect = %q", loc)
	}
	cookie := findSessionCookie(t, resp)
	if cookie.Value == "" {
		t.Fatal("session cookie missing")
	}
	if len(store.sessions) != 1 {
		t.Fatalf("stored sessions = %d", len(store.sessions))
	}
	for _, token := range store.sessions {
		if token != "jwt-abc" {
			t.Errorf("stored token = %q", token)
		}
	}
}

func TestLoginFlow_BadCredentialsRerendersForm(t *testing.T) {
	authUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid username or password"}}`))
	}))
	defer authUpstream.Close()

	app, _ := newFrontendApp(t, authUpstream.URL, "http://127.0.0.1:1")

	resp := postForm(t, app, "/login", url.Values{"username": {"alice"}, "password": {"bad"}}, nil)
	body := readAll(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want re-rendered form", resp.StatusCode)
	}
	if !strings.Contains(body, "invalid username or password") {
		t.Error("downstream message not shown to the user")
	}
	if !strings.Contains(body, `value="alice"`) {
		t.Error("username not preserved in the form")
	}
}

func TestRegisterFlow_RedirectsToLogin(t *testing.T) {
	authUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer authUpstream.Close()

	app, _ := newFrontendApp(t, authUpstream.URL, "http://127.0.0.1:1")

	resp := postForm(t, app, "/register", url.Values{
		"username": {"alice"}, "email": {"a@example.com"}, "password": {"pw"},
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login?registered=1" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestTaskList_RequiresSession(t *testing.T) {
	app, _ := newFrontendApp(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want login redirect", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestTaskList_RendersTasksAndForwardsToken(t *testing.T) {
	var sawAuth string
	tasksUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":[{"id":7,"user_id":1,"title":"write tests","status":"pending","priority":"high","created_at":"2026-09-01T10:00:00Z","updated_at":"2026-09-01T10:00:00Z"}],"count":1}`))
	}))
	defer tasksUpstream.Close()

	app, store := newFrontendApp(t, "http://127.0.0.1:1", tasksUpstream.URL)
	cookie := seedSession(t, store, "jwt-abc")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body := readAll(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if sawAuth != "Bearer jwt-abc" {
		t.Errorf("token not forwarded: %q", sawAuth)
	}
	if !strings.Contains(body, "write tests") {
		t.Error("task title not rendered")
	}
	if !strings.Contains(body, "/tasks/7") {
		t.Error("task detail link missing")
	}
}

func TestTaskList_ExpiredTokenEndsSession(t *testing.T) {
	tasksUpstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`))
	}))
	defer tasksUpstream.Close()

	app, store := newFrontendApp(t, "http://127.0.0.1:1", tasksUpstream.URL)
	cookie := seedSession(t, store, "stale-jwt")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want redirect", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login?expired=1" {
		t.Errorf("redirect = %q", loc)
	}
	if len(store.sessions) != 0 {
		t.Error("stale session not deleted")
	}
}

// seedSession creates a session directly in the store and returns a cookie
// signed the same way Begin would sign it.
func seedSession(t *testing.T, store *memSessionStore, token string) *http.Cookie {
	t.Helper()
	manager := NewSessionManager(store, testHashKey, time.Hour)
	seeder := fiber.New()
	seeder.Post("/seed", func(c *fiber.Ctx) error {
		return manager.Begin(c, token)
	})
	resp, err := seeder.Test(httptest.NewRequest(http.MethodPost, "/seed", nil))
	if err != nil {
		t.Fatalf("seeding session: %v", err)
	}
	resp.Body.Close()
	return findSessionCookie(t, resp)
}
