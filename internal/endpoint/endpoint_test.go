package endpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/iwe-console/internal/storage"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) { return "", errors.New("storage offline") }

func TestConfigIsProduction(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"production hostname", Config{Hostname: "app.iweapps.com"}, true},
		{"apex hostname", Config{Hostname: "IWEAPPS.COM"}, true},
		{"production env", Config{Hostname: "localhost", Environment: "production"}, true},
		{"development", Config{Hostname: "localhost", Environment: "development"}, false},
		{"empty", Config{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigBase(t *testing.T) {
	if got := (Config{}).Base(); got != DefaultDevelopmentBase {
		t.Errorf("expected dev default, got %q", got)
	}
	if got := (Config{Environment: "production"}).Base(); got != DefaultProductionBase {
		t.Errorf("expected prod default, got %q", got)
	}
	if got := (Config{BaseURL: "wss://edge.example.com/", Environment: "production"}).Base(); got != "wss://edge.example.com" {
		t.Errorf("expected override without trailing slash, got %q", got)
	}
}

func TestResolverURL(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		cfg      Config
		tokens   TokenSource
		wantURL  string
		wantMode Mode
	}{
		{
			name:     "production uses cookie auth",
			cfg:      Config{Hostname: "app.iweapps.com"},
			tokens:   staticTokens("ignored"),
			wantURL:  "wss://api.iweapps.com/ws",
			wantMode: ModeCookie,
		},
		{
			name:     "development with token",
			cfg:      Config{},
			tokens:   staticTokens("a b/c"),
			wantURL:  "ws://localhost:8080/ws?token=a+b%2Fc",
			wantMode: ModeToken,
		},
		{
			name:     "development without token",
			cfg:      Config{},
			tokens:   staticTokens(""),
			wantURL:  "ws://localhost:8080/ws?user_id=c0a8012e-0000-4000-8000-000000000001",
			wantMode: ModeAnonymous,
		},
		{
			name:     "nil token source",
			cfg:      Config{BaseURL: "ws://backend:9000"},
			wantURL:  "ws://backend:9000/ws?user_id=" + TestUserID(),
			wantMode: ModeAnonymous,
		},
		{
			name:     "native variant",
			cfg:      Config{Variant: VariantNative},
			tokens:   staticTokens("tok"),
			wantURL:  "ws://localhost:8080/ws/auth",
			wantMode: ModeNative,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.cfg, tt.tokens, nil)
			got, err := r.URL(ctx)
			if err != nil {
				t.Fatalf("URL failed: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
			mode, _ := r.Mode(ctx)
			if mode != tt.wantMode {
				t.Errorf("Mode() = %q, want %q", mode, tt.wantMode)
			}
		})
	}
}

func TestResolverPicksUpFreshToken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	r := NewResolver(Config{}, StorageTokens{Store: store}, nil)

	first, _ := r.URL(ctx)
	if first != "ws://localhost:8080/ws?user_id="+TestUserID() {
		t.Fatalf("unexpected first URL %q", first)
	}

	_ = store.Set(ctx, DevTokenKey, "fresh")
	second, _ := r.URL(ctx)
	if second != "ws://localhost:8080/ws?token=fresh" {
		t.Fatalf("expected token URL after refresh, got %q", second)
	}
}

func TestResolverTokenError(t *testing.T) {
	r := NewResolver(Config{}, failingTokens{}, nil)
	if _, err := r.URL(context.Background()); err == nil {
		t.Fatal("expected token lookup error")
	}
}

func TestStorageTokensPrefersAuthState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	_ = store.Set(ctx, DevTokenKey, "dev")
	_ = store.Set(ctx, AuthStateKey, `{"token":"state"}`)

	got, err := StorageTokens{Store: store}.Token(ctx)
	if err != nil || got != "state" {
		t.Fatalf("expected auth_state token, got %q err=%v", got, err)
	}

	_ = store.Set(ctx, AuthStateKey, `not json`)
	got, _ = StorageTokens{Store: store}.Token(ctx)
	if got != "dev" {
		t.Fatalf("expected dev_jwt fallback, got %q", got)
	}

	got, _ = StorageTokens{}.Token(ctx)
	if got != "" {
		t.Fatalf("expected empty token without storage, got %q", got)
	}
}
