// Package endpoint selects the WebSocket URL a client connects to.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ashureev/iwe-console/internal/storage"
	"github.com/google/uuid"
)

const (
	// ProductionDomain marks hostnames served in production.
	ProductionDomain = "iweapps.com"

	DefaultProductionBase  = "wss://api.iweapps.com"
	DefaultDevelopmentBase = "ws://localhost:8080"

	// Storage keys consulted for a development token.
	AuthStateKey = "auth_state"
	DevTokenKey  = "dev_jwt"
)

// testUserID is the anonymous identity used when no token is available.
var testUserID = uuid.MustParse("c0a8012e-0000-4000-8000-000000000001")

// TestUserID returns the anonymous fallback user ID.
func TestUserID() string {
	return testUserID.String()
}

// Variant selects the client flavour.
type Variant int

const (
	// VariantBrowser authenticates with cookies or a token query parameter.
	VariantBrowser Variant = iota
	// VariantNative uses the dedicated header-authenticated endpoint.
	VariantNative
)

// Mode describes how a resolved URL authenticates.
type Mode string

const (
	ModeCookie    Mode = "cookie"
	ModeToken     Mode = "token"
	ModeAnonymous Mode = "anonymous"
	ModeNative    Mode = "native"
)

// Config is the explicit input to URL selection.
type Config struct {
	BaseURL     string // override; empty selects a default from Hostname/Environment
	Hostname    string
	Environment string
	Variant     Variant
}

// IsProduction reports whether the config describes a production client.
func (c Config) IsProduction() bool {
	host := strings.ToLower(strings.TrimSpace(c.Hostname))
	return strings.HasSuffix(host, ProductionDomain) || c.Environment == "production"
}

// Base returns the WebSocket base URL without a trailing slash.
func (c Config) Base() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		if c.IsProduction() {
			base = DefaultProductionBase
		} else {
			base = DefaultDevelopmentBase
		}
	}
	return strings.TrimRight(base, "/")
}

// TokenSource supplies a development auth token. An empty token means none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StorageTokens reads the token from the client's storage: the token field of
// the auth_state JSON first, then dev_jwt.
type StorageTokens struct {
	Store storage.Storage
}

// Token implements TokenSource.
func (s StorageTokens) Token(ctx context.Context) (string, error) {
	if s.Store == nil {
		return "", nil
	}

	raw, ok, err := s.Store.Get(ctx, AuthStateKey)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", AuthStateKey, err)
	}
	if ok && raw != "" {
		var state struct {
			Token string `json:"token"`
		}
		if json.Unmarshal([]byte(raw), &state) == nil && state.Token != "" {
			return state.Token, nil
		}
	}

	token, _, err := s.Store.Get(ctx, DevTokenKey)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", DevTokenKey, err)
	}
	return token, nil
}

// Resolver turns a Config into connection URLs.
type Resolver struct {
	cfg    Config
	base   string
	prod   bool
	tokens TokenSource
	logger *slog.Logger
}

// NewResolver creates a resolver. tokens may be nil.
func NewResolver(cfg Config, tokens TokenSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		cfg:    cfg,
		base:   cfg.Base(),
		prod:   cfg.IsProduction(),
		tokens: tokens,
		logger: logger,
	}
	logger.Debug("WebSocket configuration",
		"production", r.prod,
		"base", r.base,
		"hostname", cfg.Hostname,
		"environment", cfg.Environment)
	return r
}

// Base returns the resolved base URL.
func (r *Resolver) Base() string {
	return r.base
}

// IsProduction reports whether production rules apply.
func (r *Resolver) IsProduction() bool {
	return r.prod
}

// URL returns the URL for the next connection attempt. Production and native
// URLs are fixed; the development URL re-reads the token on every call so
// retries pick up a freshly issued one.
func (r *Resolver) URL(ctx context.Context) (string, error) {
	u, mode, err := r.resolve(ctx)
	if err != nil {
		return "", err
	}
	r.logger.Debug("Resolved WebSocket URL", "mode", mode)
	return u, nil
}

// Mode reports the authentication mode the next URL would use.
func (r *Resolver) Mode(ctx context.Context) (Mode, error) {
	_, mode, err := r.resolve(ctx)
	return mode, err
}

func (r *Resolver) resolve(ctx context.Context) (string, Mode, error) {
	if r.cfg.Variant == VariantNative {
		return r.base + "/ws/auth", ModeNative, nil
	}
	if r.prod {
		return r.base + "/ws", ModeCookie, nil
	}

	if r.tokens != nil {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return "", "", fmt.Errorf("lookup dev token: %w", err)
		}
		if token != "" {
			return r.base + "/ws?token=" + url.QueryEscape(token), ModeToken, nil
		}
	}

	return r.base + "/ws?user_id=" + testUserID.String(), ModeAnonymous, nil
}
