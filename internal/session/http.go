package session

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	// StorageCookiePrefix namespaces storage items kept in client cookies.
	StorageCookiePrefix = "ls_"
	storageCookieMaxAge = 365 * 24 * time.Hour
)

// CookieStorage is a request-scoped storage.Storage whose items live in the
// client's cookies. Writes made during the request are visible to later
// reads in the same request.
type CookieStorage struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool

	mu      sync.Mutex
	pending map[string]*string // nil marks a removal
}

// NewCookieStorage creates storage for one request.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, secure bool) *CookieStorage {
	return &CookieStorage{w: w, r: r, secure: secure, pending: make(map[string]*string)}
}

// Get implements storage.Storage.
func (s *CookieStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	if v, ok := s.pending[key]; ok {
		s.mu.Unlock()
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	s.mu.Unlock()

	c, err := s.r.Cookie(StorageCookiePrefix + key)
	if err != nil {
		return "", false, nil
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return c.Value, true, nil
	}
	return v, true, nil
}

// Set implements storage.Storage.
func (s *CookieStorage) Set(_ context.Context, key, value string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     StorageCookiePrefix + key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(storageCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(storageCookieMaxAge),
		SameSite: http.SameSiteLaxMode,
		Secure:   s.secure,
	})

	s.mu.Lock()
	s.pending[key] = &value
	s.mu.Unlock()
	return nil
}

// Remove implements storage.Storage.
func (s *CookieStorage) Remove(_ context.Context, key string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:    StorageCookiePrefix + key,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(1, 0),
	})

	s.mu.Lock()
	s.pending[key] = nil
	s.mu.Unlock()
	return nil
}

// ResponseCookies writes plain cookies to the response. Cookies are
// readable by scripts (no HttpOnly) to mirror the original client.
type ResponseCookies struct {
	W      http.ResponseWriter
	Secure bool
}

// SetCookie implements CookieJar.
func (c ResponseCookies) SetCookie(name, value string) {
	http.SetCookie(c.W, &http.Cookie{
		Name:   name,
		Value:  value,
		Path:   "/",
		Secure: c.Secure,
	})
}

// ClearCookie implements CookieJar.
func (c ResponseCookies) ClearCookie(name string) {
	http.SetCookie(c.W, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(1, 0),
	})
}

// Redirector implements Navigator with HTTP redirects. At most one
// navigation is written per request.
type Redirector struct {
	w        http.ResponseWriter
	r        *http.Request
	location string
}

// NewRedirector creates a navigator for one request.
func NewRedirector(w http.ResponseWriter, r *http.Request) *Redirector {
	return &Redirector{w: w, r: r}
}

// Push waits delay, unless the request is cancelled, then answers 303.
func (n *Redirector) Push(path string, delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-n.r.Context().Done():
			t.Stop()
			return
		}
	}
	n.redirect(path, http.StatusSeeOther)
}

// Replace answers 302.
func (n *Redirector) Replace(path string) {
	n.redirect(path, http.StatusFound)
}

// Assign answers 303 and forbids caching of the page being left.
func (n *Redirector) Assign(path string) {
	n.w.Header().Set("Cache-Control", "no-store")
	n.redirect(path, http.StatusSeeOther)
}

// Navigated reports whether a redirect was written.
func (n *Redirector) Navigated() bool {
	return n.location != ""
}

// Location returns the redirect target, if any.
func (n *Redirector) Location() string {
	return n.location
}

func (n *Redirector) redirect(path string, code int) {
	if n.location != "" {
		return
	}
	n.location = path
	http.Redirect(n.w, n.r, path, code)
}

// NewHTTPHost assembles a Host backed by the request's cookies.
func NewHTTPHost(w http.ResponseWriter, r *http.Request, secure bool, logger *slog.Logger) (Host, *Redirector) {
	nav := NewRedirector(w, r)
	return Host{
		Storage: NewCookieStorage(w, r, secure),
		Cookies: ResponseCookies{W: w, Secure: secure},
		Nav:     nav,
		Logger:  logger,
	}, nav
}

// RequireSession runs the per-page session check before next. Requests
// without the flag are redirected to the login page.
func RequireSession(secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	newHost := func(w http.ResponseWriter, r *http.Request) (Host, *Redirector) {
		return NewHTTPHost(w, r, secure, logger)
	}
	return func(next http.Handler) http.Handler {
		return guard(next, newHost, logger)
	}
}

func guard(next http.Handler, newHost func(http.ResponseWriter, *http.Request) (Host, *Redirector), logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, nav := newHost(w, r)
		allowed, err := host.Guard(r.Context())
		if err != nil {
			logger.Error("Session check failed", "error", err, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"session check failed"}` + "\n"))
			return
		}
		if !allowed {
			logger.Debug("Redirecting unauthenticated request", "path", r.URL.Path, "location", nav.Location())
			return
		}
		next.ServeHTTP(w, r)
	})
}
