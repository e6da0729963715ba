package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ashureev/iwe-console/internal/storage"
)

// StorageCookies keeps cookies in a storage.Storage under "cookie:<name>",
// for hosts without a cookie jar of their own.
type StorageCookies struct {
	Store  storage.Storage
	Logger *slog.Logger
}

// CookieKey returns the storage key used for cookie name.
func CookieKey(name string) string {
	return "cookie:" + name
}

// SetCookie implements CookieJar.
func (c StorageCookies) SetCookie(name, value string) {
	if err := c.Store.Set(context.Background(), CookieKey(name), value); err != nil {
		c.log().Warn("Failed to store cookie", "name", name, "error", err)
	}
}

// ClearCookie implements CookieJar.
func (c StorageCookies) ClearCookie(name string) {
	if err := c.Store.Remove(context.Background(), CookieKey(name)); err != nil {
		c.log().Warn("Failed to clear cookie", "name", name, "error", err)
	}
}

func (c StorageCookies) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// PrintNavigator reports navigations to Out instead of performing them.
type PrintNavigator struct {
	Out io.Writer
	// Wait makes Push sleep for its delay.
	Wait bool
}

// Push implements Navigator.
func (n *PrintNavigator) Push(path string, delay time.Duration) {
	if n.Wait && delay > 0 {
		time.Sleep(delay)
	}
	n.print("push", path)
}

// Replace implements Navigator.
func (n *PrintNavigator) Replace(path string) {
	n.print("replace", path)
}

// Assign implements Navigator.
func (n *PrintNavigator) Assign(path string) {
	n.print("assign", path)
}

func (n *PrintNavigator) print(kind, path string) {
	if n.Out != nil {
		_, _ = fmt.Fprintf(n.Out, "navigate (%s): %s\n", kind, path)
	}
}
