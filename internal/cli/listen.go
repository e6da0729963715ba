package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ashureev/iwe-console/internal/endpoint"
	"github.com/ashureev/iwe-console/internal/protocol"
	"github.com/ashureev/iwe-console/internal/storage"
	"github.com/ashureev/iwe-console/internal/wsclient"
	"github.com/spf13/cobra"
)

func newListenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Connect and print stream events as JSON lines",
		Long: "Connects to the WebSocket and prints every event as one JSON line.\n" +
			"Lines read from stdin are sent as JSON frames; /reconnect forces a fresh\n" +
			"connection and /status prints the connection state.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().Int64Var(&a.readLimit, "read-limit", 0, "maximum inbound message size in bytes; 0 keeps the library default")
	return cmd
}

func (a *app) resolver(store storage.Storage) *endpoint.Resolver {
	return endpoint.NewResolver(a.endpointConfig(), endpoint.StorageTokens{Store: store}, a.logger)
}

// handshakeHeader carries cookie auth and, for the native endpoint, the
// stored token as a bearer credential.
func (a *app) handshakeHeader(ctx context.Context, store storage.Storage) (http.Header, error) {
	header := http.Header{}
	if a.cookie != "" {
		header.Set("Cookie", a.cookie)
	}
	if a.native {
		token, err := endpoint.StorageTokens{Store: store}.Token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}
	return header, nil
}

func (a *app) listen(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer closeStore(store, a.logger)

	header, err := a.handshakeHeader(ctx, store)
	if err != nil {
		return err
	}

	// Events go to out as JSON lines; notices go to errOut.
	var outMu sync.Mutex
	enc := json.NewEncoder(out)
	notice := func(format string, args ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(errOut, format, args...)
	}

	client := wsclient.New(a.resolver(store), wsclient.Options{
		OnMessage: func(m protocol.Message) {
			outMu.Lock()
			defer outMu.Unlock()
			if err := enc.Encode(m); err != nil {
				a.logger.Error("Failed to print message", "error", err)
			}
		},
		OnConnect:    func() { notice("connection open\n") },
		OnDisconnect: func() { notice("connection closed\n") },
		OnError: func(err error) {
			if errors.Is(err, wsclient.ErrMaxReconnectAttempts) {
				notice("giving up after repeated failures; type /reconnect to try again\n")
			}
		},
		ReconnectInterval:    a.reconnectInterval,
		MaxReconnectAttempts: a.maxAttempts,
		Dialer:               &wsclient.WebSocketDialer{Header: header, ReadLimit: a.readLimit},
		Logger:               a.logger,
	})
	client.Start(ctx)
	defer client.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			a.handleLine(client, strings.TrimSpace(line), notice)
		}
	}
}

func (a *app) handleLine(client *wsclient.Client, line string, notice func(string, ...any)) {
	switch line {
	case "":
	case "/reconnect":
		client.Reconnect()
	case "/status":
		notice("client: %s state: %s attempts: %d buffered: %d bytes\n", client.ID(), client.State(), client.Attempts(), len(client.Buffered()))
		if last, ok := client.LastMessage(); ok {
			notice("last message: %s\n", last.Type)
		}
	default:
		var v json.RawMessage
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			notice("not sent: input must be JSON\n")
			return
		}
		if !client.Send(v) {
			notice("not sent: not connected\n")
		}
	}
}
