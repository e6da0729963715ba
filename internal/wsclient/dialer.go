package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
)

// Conn is the subset of *websocket.Conn the client uses.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// WebSocketDialer dials with github.com/coder/websocket.
type WebSocketDialer struct {
	// Header is sent with the handshake, e.g. a Cookie for cookie auth.
	Header http.Header
	// ReadLimit overrides the per-message read limit when positive.
	ReadLimit int64
}

// NewDialer creates a dialer that sends header with every handshake.
func NewDialer(header http.Header) *WebSocketDialer {
	return &WebSocketDialer{Header: header}
}

// Dial implements Dialer.
// Returned errors never carry the token query value.
func (d *WebSocketDialer) Dial(ctx context.Context, target string) (Conn, error) {
	var header http.Header
	if d != nil && d.Header != nil {
		header = d.Header.Clone()
	}

	conn, _, err := websocket.Dial(ctx, target, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = RedactURL(ue.URL)
		}
		return nil, fmt.Errorf("dial %s: %w", RedactURL(target), err)
	}
	if d != nil && d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return conn, nil
}

var _ Conn = (*websocket.Conn)(nil)
