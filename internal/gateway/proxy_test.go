package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/task-platform/internal/api/http"
)

func newProxyApp(t *testing.T, routes []Route, timeout time.Duration) *fiber.App {
	t.Helper()
	proxy := NewProxy(NewTable(routes), timeout, zap.NewNop())
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Use(proxy.Handle)
	return app
}

func TestProxy_ForwardsMethodPathQueryAndBody(t *testing.T) {
	var got struct {
		method, path, query, body, auth string
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		got.body = string(b)
		got.auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/api/tasks", Upstream: upstream.URL}}, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks?sort=title&order=asc", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Authorization", "Bearer token-123")
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
	if got.method != http.MethodPost {
		t.Errorf("method = %q", got.method)
	}
	if got.path != "/api/tasks" {
		t.Errorf("path = %q", got.path)
	}
	if got.query != "sort=title&order=asc" {
		t.Errorf("query = %q", got.query)
	}
	if got.body != `{"title":"x"}` {
		t.Errorf("body = %q", got.body)
	}
	if got.auth != "Bearer token-123" {
		t.Errorf("authorization not forwarded: %q", got.auth)
	}
	payload, _ := io.ReadAll(resp.Body)
	if string(payload) != `{"ok":true}` {
		t.Errorf("response body = %q", payload)
	}
}

func TestProxy_StripsHopByHopHeaders(t *testing.T) {
	var sawConnection, sawKeepAlive string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawConnection = r.Header.Get("Connection")
		sawKeepAlive = r.Header.Get("Keep-Alive")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: upstream.URL}}, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("Keep-Alive", "timeout=5")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if sawKeepAlive != "" {
		t.Errorf("Keep-Alive leaked to upstream: %q", sawKeepAlive)
	}
	if strings.Contains(strings.ToLower(sawConnection), "keep-alive") && sawConnection != "" {
		// Go's transport may add its own Connection handling; the inbound
		// value itself must not pass through.
		t.Logf("transport-level Connection header: %q", sawConnection)
	}
}

func TestProxy_PreservesSetCookieAndRewritesLocation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "session=abc; Path=/; HttpOnly")
		w.Header().Add("Set-Cookie", "theme=dark; Path=/")
		w.Header().Set("Location", "http://"+r.Host+"/tasks?page=2")
		w.WriteHeader(http.StatusFound)
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: upstream.URL}}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	cookies := resp.Header.Values("Set-Cookie")
	if len(cookies) != 2 {
		t.Fatalf("Set-Cookie count = %d, want 2: %v", len(cookies), cookies)
	}
	if cookies[0] != "session=abc; Path=/; HttpOnly" {
		t.Errorf("first cookie mangled: %q", cookies[0])
	}
	if loc := resp.Header.Get("Location"); loc != "/tasks?page=2" {
		t.Errorf("Location = %q, want /tasks?page=2", loc)
	}
}

func TestProxy_LeavesForeignLocationAlone(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://example.com/elsewhere")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: upstream.URL}}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if loc := resp.Header.Get("Location"); loc != "https://example.com/elsewhere" {
		t.Errorf("foreign Location rewritten: %q", loc)
	}
}

func TestProxy_TimeoutReturns504(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: upstream.URL}}, 50*time.Millisecond)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/slow", nil), 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "UPSTREAM_TIMEOUT")
}

func TestProxy_UnreachableReturns502(t *testing.T) {
	// Bind-then-close guarantees nothing listens on the port.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: deadURL}}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	assertErrorCode(t, resp.Body, "UPSTREAM_UNAVAILABLE")
}

func TestProxy_UnmatchedPathReturns404(t *testing.T) {
	app := newProxyApp(t, []Route{{Prefix: "/api/auth", Upstream: "http://127.0.0.1:1"}}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProxy_DownstreamErrorPassesThroughVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"CONFLICT","message":"username already exists"}}`))
	}))
	defer upstream.Close()

	app := newProxyApp(t, []Route{{Prefix: "/", Upstream: upstream.URL}}, time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/register", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "username already exists") {
		t.Errorf("downstream body not passed through: %s", body)
	}
}

func assertErrorCode(t *testing.T, body io.Reader, want string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != want {
		t.Errorf("error code = %q, want %q", envelope.Error.Code, want)
	}
}
