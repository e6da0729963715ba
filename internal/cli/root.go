// Package cli implements the streamctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ashureev/iwe-console/internal/config"
	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/ashureev/iwe-console/internal/storage"
	"github.com/spf13/cobra"
)

type app struct {
	storagePath       string
	wsURL             string
	env               string
	hostname          string
	native            bool
	reconnectInterval time.Duration
	maxAttempts       int
	cookie            string
	verbose           bool
	readLimit         int64
	redirectDelay     time.Duration

	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds streamctl wired to the process streams.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithIO(os.Stdin, os.Stdout, os.Stderr)
}

// NewRootCommandWithIO builds streamctl with explicit streams.
func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	defaults := defaultConfig()
	a := &app{
		redirectDelay: defaults.LoginRedirectDelay,
		stdin:         in,
		stdout:        out,
		stderr:        errOut,
	}

	cmd := &cobra.Command{
		Use:           "streamctl",
		Short:         "Terminal client for the IWE streaming socket",
		Long:          "streamctl connects to the IWE WebSocket, prints reassembled stream events and manages the local session and dev token.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.PersistentFlags()
	f.StringVar(&a.storagePath, "storage", defaults.LocalStoragePath, "path to the local storage database")
	f.StringVar(&a.wsURL, "ws-url", defaults.WebSocket.URL, "WebSocket base URL override")
	f.StringVar(&a.env, "env", defaults.AppEnv, "environment name; \"production\" selects production rules")
	f.StringVar(&a.hostname, "hostname", defaults.PublicHostname, "hostname the client pretends to be served from")
	f.BoolVar(&a.native, "native", false, "use the header-authenticated native endpoint")
	f.DurationVar(&a.reconnectInterval, "reconnect-interval", defaults.WebSocket.ReconnectInterval, "base reconnect back-off")
	f.IntVar(&a.maxAttempts, "max-attempts", defaults.WebSocket.MaxReconnectAttempts, "automatic reconnect attempts; negative disables")
	f.StringVar(&a.cookie, "cookie", "", "Cookie header sent with the handshake")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(
		newListenCmd(a),
		newTokenCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newKeysCmd(a),
	)
	return cmd
}

// defaultConfig takes flag defaults from the environment, falling back to
// built-in values when the environment does not validate.
func defaultConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return &config.Config{
			PublicHostname:     "localhost",
			LocalStoragePath:   "./data/local.db",
			LoginRedirectDelay: 100 * time.Millisecond,
			WebSocket: config.WebSocketConfig{
				ReconnectInterval:    3 * time.Second,
				MaxReconnectAttempts: 5,
			},
		}
	}
	return cfg
}

func (a *app) openStorage() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLite(a.storagePath)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		closeStore(store, a.logger)
		return nil, fmt.Errorf("local storage health check: %w", err)
	}
	return store, nil
}

func (a *app) endpointConfig() endpoint.Config {
	variant := endpoint.VariantBrowser
	if a.native {
		variant = endpoint.VariantNative
	}
	return endpoint.Config{
		BaseURL:     a.wsURL,
		Hostname:    a.hostname,
		Environment: a.env,
		Variant:     variant,
	}
}

func closeStore(store *storage.SQLiteStore, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close local storage", "error", err)
	}
}
