package config

import (
	"strings"
	"testing"
	"time"

	"github.com/ashureev/iwe-console/internal/endpoint"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "FRONTEND_URL", "APP_ENV", "PUBLIC_HOSTNAME", "WS_URL",
		"WS_RECONNECT_INTERVAL", "WS_MAX_RECONNECT_ATTEMPTS", "LOCAL_STORAGE_PATH",
		"LOGIN_REDIRECT_DELAY", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}
	// t.Setenv cannot unset; empty values for these keys are still valid input,
	// so override the few whose empty value would fail validation.
	t.Setenv("PORT", "8080")
	t.Setenv("LOCAL_STORAGE_PATH", "./data/local.db")
	t.Setenv("WS_RECONNECT_INTERVAL", "3s")
	t.Setenv("LOGIN_REDIRECT_DELAY", "100ms")
	t.Setenv("WS_MAX_RECONNECT_ATTEMPTS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WebSocket.ReconnectInterval != 3*time.Second {
		t.Errorf("expected 3s interval, got %v", cfg.WebSocket.ReconnectInterval)
	}
	if cfg.WebSocket.MaxReconnectAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", cfg.WebSocket.MaxReconnectAttempts)
	}
	if cfg.LoginRedirectDelay != 100*time.Millisecond {
		t.Errorf("expected 100ms delay, got %v", cfg.LoginRedirectDelay)
	}
	if !cfg.IsDevelopment() || cfg.SecureCookies() {
		t.Error("empty FRONTEND_URL should mean development without secure cookies")
	}
}

func TestLoadRejectsBadWebSocketURL(t *testing.T) {
	t.Setenv("WS_URL", "http://example.com")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "WS_URL") {
		t.Fatalf("expected WS_URL error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:             "8080",
			LocalStoragePath: "x.db",
			WebSocket:        WebSocketConfig{ReconnectInterval: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"empty port", func(c *Config) { c.Port = "" }, false},
		{"empty storage", func(c *Config) { c.LocalStoragePath = "" }, false},
		{"zero interval", func(c *Config) { c.WebSocket.ReconnectInterval = 0 }, false},
		{"negative delay", func(c *Config) { c.LoginRedirectDelay = -time.Second }, false},
		{"wss url", func(c *Config) { c.WebSocket.URL = "wss://api.iweapps.com" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"1500", 1500 * time.Millisecond},
		{"2s", 2 * time.Second},
		{" 250ms ", 250 * time.Millisecond},
		{"soon", time.Minute},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := getEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, true},
		{Config{FrontendURL: "http://localhost:3000"}, true},
		{Config{FrontendURL: "https://console.iweapps.com"}, false},
		{Config{AppEnv: "development", FrontendURL: "https://console.iweapps.com"}, true},
		{Config{AppEnv: "production", FrontendURL: "http://localhost:3000"}, false},
	}
	for _, tt := range tests {
		if got := tt.cfg.IsDevelopment(); got != tt.want {
			t.Errorf("%+v IsDevelopment() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestEndpoint(t *testing.T) {
	c := Config{PublicHostname: "console.iweapps.com", WebSocket: WebSocketConfig{URL: "wss://edge.iweapps.com/"}}
	ec := c.Endpoint()
	if !ec.IsProduction() {
		t.Error("iweapps.com hostname should be production")
	}
	if ec.Base() != "wss://edge.iweapps.com" {
		t.Errorf("unexpected base %q", ec.Base())
	}
	if ec.Variant != endpoint.VariantBrowser {
		t.Error("server endpoint config is for browser clients")
	}
}
