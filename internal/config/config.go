// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/iwe-console/internal/endpoint"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	AppEnv         string
	PublicHostname string // hostname clients are served under; drives production detection
	WebSocket      WebSocketConfig

	LocalStoragePath   string
	LoginRedirectDelay time.Duration
	CookieSecure       bool // force Secure cookies even in development
}

// WebSocketConfig controls the streaming client.
type WebSocketConfig struct {
	URL                  string // base override; empty picks a default
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		AppEnv:         getEnv("APP_ENV", ""),
		PublicHostname: getEnv("PUBLIC_HOSTNAME", "localhost"),
		WebSocket: WebSocketConfig{
			URL:                  getEnv("WS_URL", ""),
			ReconnectInterval:    getEnvDuration("WS_RECONNECT_INTERVAL", 3*time.Second),
			MaxReconnectAttempts: getEnvInt("WS_MAX_RECONNECT_ATTEMPTS", 5),
		},
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./data/local.db"),
		LoginRedirectDelay: getEnvDuration("LOGIN_REDIRECT_DELAY", 100*time.Millisecond),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.LocalStoragePath == "" {
		return fmt.Errorf("LOCAL_STORAGE_PATH cannot be empty")
	}
	if c.WebSocket.ReconnectInterval <= 0 {
		return fmt.Errorf("WS_RECONNECT_INTERVAL must be > 0")
	}
	if c.LoginRedirectDelay < 0 {
		return fmt.Errorf("LOGIN_REDIRECT_DELAY cannot be negative")
	}
	if u := c.WebSocket.URL; u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("WS_URL must use ws:// or wss://, got %q", u)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if c.AppEnv != "" {
		return c.AppEnv == "development"
	}
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// Endpoint returns the URL selection input for browser clients.
func (c *Config) Endpoint() endpoint.Config {
	return endpoint.Config{
		BaseURL:     c.WebSocket.URL,
		Hostname:    c.PublicHostname,
		Environment: c.AppEnv,
		Variant:     endpoint.VariantBrowser,
	}
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || !c.IsDevelopment()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("3s") or bare milliseconds ("3000").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
