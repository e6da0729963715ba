// Package session implements the mock login flow and the client-held
// session flag that gates protected pages.
//
// The flag is not a security boundary: it lives in client storage and a
// plain cookie, is unsigned, never expires and is not verified by any server.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/iwe-console/internal/storage"
)

const (
	// FlagKey is the storage key of the session flag.
	FlagKey = "auth"
	// FlagValue is the only value accepted as logged in.
	FlagValue = "true"
	// CookieName is the plain cookie mirrored alongside the flag.
	CookieName = "auth"

	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	// RedirectDelay is how long a successful login waits before navigating.
	RedirectDelay = 100 * time.Millisecond

	// InvalidCredentialsMessage is shown inline after a failed login.
	InvalidCredentialsMessage = "Invalid credentials"
)

// ErrInvalidCredentials is returned by Login for any pair other than the
// mock credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidateCredentials is a placeholder credential check.
func ValidateCredentials(username, password string) bool {
	return username == "admin" && password == "password"
}

// CookieJar sets and clears client cookies.
type CookieJar interface {
	SetCookie(name, value string)
	ClearCookie(name string)
}

// Navigator moves the client between routes.
type Navigator interface {
	// Push navigates after delay, keeping client-side state.
	Push(path string, delay time.Duration)
	// Replace redirects without adding a history entry.
	Replace(path string)
	// Assign performs a full navigation that discards in-memory state.
	Assign(path string)
}

// Host bundles the client capabilities the session flow needs.
type Host struct {
	Storage storage.Storage
	Cookies CookieJar
	Nav     Navigator
	Logger  *slog.Logger

	// RedirectDelay overrides the post-login delay when positive.
	RedirectDelay time.Duration
}

func (h Host) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login checks the credentials. On success it stores the session flag, sets
// the mirrored cookie and navigates to the dashboard after a short delay.
func (h Host) Login(ctx context.Context, username, password string) error {
	if !ValidateCredentials(username, password) {
		h.logger().Info("Login rejected", "username", username)
		return ErrInvalidCredentials
	}

	if err := h.Storage.Set(ctx, FlagKey, FlagValue); err != nil {
		return fmt.Errorf("store session flag: %w", err)
	}
	h.Cookies.SetCookie(CookieName, FlagValue)
	h.logger().Info("Login succeeded", "username", username)

	delay := RedirectDelay
	if h.RedirectDelay > 0 {
		delay = h.RedirectDelay
	}
	h.Nav.Push(DashboardPath, delay)
	return nil
}

// IsAuthenticated reports whether the session flag is exactly FlagValue.
func (h Host) IsAuthenticated(ctx context.Context) (bool, error) {
	v, ok, err := h.Storage.Get(ctx, FlagKey)
	if err != nil {
		return false, fmt.Errorf("read session flag: %w", err)
	}
	return ok && v == FlagValue, nil
}

// Guard redirects to the login page unless the session flag is set.
// It reports whether the protected content may render.
func (h Host) Guard(ctx context.Context) (bool, error) {
	ok, err := h.IsAuthenticated(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		h.Nav.Replace(LoginPath)
		return false, nil
	}
	return true, nil
}

// Logout clears the flag and cookie and forces a full navigation to login.
func (h Host) Logout(ctx context.Context) error {
	if err := h.Storage.Remove(ctx, FlagKey); err != nil {
		return fmt.Errorf("remove session flag: %w", err)
	}
	h.Cookies.ClearCookie(CookieName)
	h.logger().Info("Logged out")
	h.Nav.Assign(LoginPath)
	return nil
}
