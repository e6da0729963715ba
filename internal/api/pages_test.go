//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/iwe-console/internal/config"
	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/ashureev/iwe-console/internal/session"
	"github.com/ashureev/iwe-console/web"
	"github.com/go-chi/chi/v5"
)

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	pages, err := web.Templates()
	if err != nil {
		t.Fatalf("Templates failed: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{
			PublicHostname:     "localhost",
			LoginRedirectDelay: time.Millisecond,
			WebSocket:          config.WebSocketConfig{ReconnectInterval: 3 * time.Second, MaxReconnectAttempts: 5},
		}
	}
	r := chi.NewRouter()
	NewHandler(cfg, pages, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// noRedirect returns a client that surfaces redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestDashboardRequiresSession(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/dashboard", "/profile", "/settings"} {
		resp, err := noRedirect().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != session.LoginPath {
			t.Errorf("GET %s: expected redirect to login, got %d %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
		if strings.Contains(body, "Welcome to your dashboard!") {
			t.Errorf("GET %s rendered protected content", path)
		}
	}
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := noRedirect().PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, session.InvalidCredentialsMessage) {
		t.Error("expected inline error message")
	}
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName || c.Name == session.StorageCookiePrefix+session.FlagKey {
			t.Errorf("failed login set cookie %s", c.Name)
		}
	}
}

func TestLoginDashboardLogout(t *testing.T) {
	srv := newTestServer(t, nil)
	client := noRedirect()

	resp, err := client.PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"password"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != session.DashboardPath {
		t.Fatalf("expected 303 to dashboard, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	cookies := resp.Cookies()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET /dashboard: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Welcome to your dashboard!") {
		t.Fatalf("expected dashboard, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("POST /logout: %v", err)
	}
	readBody(t, resp)
	if resp.Header.Get("Location") != session.LoginPath {
		t.Fatalf("expected redirect to login, got %q", resp.Header.Get("Location"))
	}
	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	if !cleared[session.CookieName] || !cleared[session.StorageCookiePrefix+session.FlagKey] {
		t.Fatalf("expected session cookies cleared, got %v", resp.Cookies())
	}
}

func TestSidebarStateFromQuery(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/?sidebar=closed")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "shell--collapsed") || !strings.Contains(body, "?sidebar=open") {
		t.Fatal("expected collapsed sidebar with open toggle")
	}
	if !strings.Contains(body, "Log in to open your dashboard.") {
		t.Fatal("expected home page body text")
	}
}

func TestWSConfig(t *testing.T) {
	srv := newTestServer(t, nil)

	get := func(cookies ...*http.Cookie) map[string]interface{} {
		t.Helper()
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/ws-config", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /api/ws-config: %v", err)
		}
		defer resp.Body.Close()
		var got map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return got
	}

	got := get()
	if got["mode"] != string(endpoint.ModeAnonymous) {
		t.Errorf("expected anonymous mode, got %v", got["mode"])
	}
	if got["url"] != endpoint.DefaultDevelopmentBase+"/ws?user_id="+endpoint.TestUserID() {
		t.Errorf("unexpected url %v", got["url"])
	}
	if got["reconnect_interval_ms"] != float64(3000) || got["max_reconnect_attempts"] != float64(5) {
		t.Errorf("unexpected reconnect settings %v", got)
	}

	got = get(&http.Cookie{Name: session.StorageCookiePrefix + endpoint.DevTokenKey, Value: "abc"})
	if got["mode"] != string(endpoint.ModeToken) || got["url"] != endpoint.DefaultDevelopmentBase+"/ws?token=abc" {
		t.Errorf("expected token url, got %v", got)
	}
}

func TestWSConfigProduction(t *testing.T) {
	srv := newTestServer(t, &config.Config{PublicHostname: "console.iweapps.com"})

	resp, err := http.Get(srv.URL + "/api/ws-config")
	if err != nil {
		t.Fatalf("GET /api/ws-config: %v", err)
	}
	defer resp.Body.Close()
	var got map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["url"] != endpoint.DefaultProductionBase+"/ws" || got["mode"] != string(endpoint.ModeCookie) {
		t.Errorf("expected cookie-authenticated production url, got %v", got)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/static/app.css")
	if err != nil {
		t.Fatalf("GET /static/app.css: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
