// Package wsclient provides a streaming WebSocket client with capped
// exponential reconnect back-off and chunk reassembly.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/ashureev/iwe-console/internal/protocol"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ErrMaxReconnectAttempts is reported through OnError once automatic
// reconnects have been exhausted.
var ErrMaxReconnectAttempts = errors.New("max reconnect attempts reached")

const (
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMaxReconnectAttempts = 5

	writeTimeout = 10 * time.Second
)

// Endpoint supplies the URL for each connection attempt.
type Endpoint interface {
	URL(ctx context.Context) (string, error)
}

// StaticEndpoint always returns the same URL.
type StaticEndpoint string

// URL implements Endpoint.
func (s StaticEndpoint) URL(context.Context) (string, error) {
	return string(s), nil
}

// Options configures a Client. All callbacks are optional and are invoked
// from the client's own goroutines; they must not block for long.
type Options struct {
	OnMessage    func(protocol.Message)
	OnConnect    func()
	OnDisconnect func()
	OnError      func(error)

	// ReconnectInterval is the base back-off delay. Zero selects 3s.
	ReconnectInterval time.Duration
	// MaxReconnectAttempts bounds automatic retries. Zero selects 5;
	// a negative value disables automatic retries.
	MaxReconnectAttempts int

	Dialer Dialer
	Logger *slog.Logger
}

// Client maintains at most one live connection.
type Client struct {
	id       string
	endpoint Endpoint
	dialer   Dialer
	logger   *slog.Logger
	opts     Options
	asm      *Assembler
	now      func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	state    State
	conn     Conn
	gen      uint64 // bumped whenever the current connection is superseded
	attempts int
	timer    *time.Timer
	last     *protocol.Message
	stopped  bool
}

// New creates an idle client. Call Start to connect.
func New(endpoint Endpoint, opts Options) *Client {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	} else if opts.MaxReconnectAttempts < 0 {
		opts.MaxReconnectAttempts = 0
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = NewDialer(nil)
	}

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		id:       id,
		endpoint: endpoint,
		dialer:   dialer,
		logger:   logger.With("client_id", id),
		opts:     opts,
		asm:      NewAssembler(),
		now:      time.Now,
		state:    StateIdle,
	}
}

// ID returns the client's instance ID used in logs.
func (c *Client) ID() string {
	return c.id
}

// Start begins the first connection attempt. It returns immediately.
// Subsequent calls are no-ops.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.ctx != nil || c.stopped {
		c.mu.Unlock()
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.connect()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether a connection is open.
func (c *Client) IsConnected() bool {
	return c.State() == StateOpen
}

// Attempts returns the number of reconnect attempts since the last open.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// LastMessage returns the most recent decoded inbound message.
func (c *Client) LastMessage() (protocol.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return protocol.Message{}, false
	}
	return *c.last, true
}

// Buffered returns the streamed text not yet completed.
func (c *Client) Buffered() string {
	return c.asm.Buffered()
}

// Send encodes v as JSON and writes it as one text frame. It only sends while
// the connection is open; otherwise it logs a warning and returns false.
// Messages are never queued.
func (c *Client) Send(v any) bool {
	c.mu.Lock()
	conn, ctx, open := c.conn, c.ctx, c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		c.logger.Warn("WebSocket is not connected, message not sent")
		return false
	}
	if err := c.write(ctx, conn, v); err != nil {
		c.logger.Warn("Failed to send WebSocket message", "error", err)
		return false
	}
	return true
}

// Reconnect closes any live connection and connects again immediately,
// skipping the back-off delay. It also leaves the exhausted state.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if c.stopped || c.ctx == nil {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	old := c.conn
	c.conn = nil
	c.gen++
	c.attempts = 0
	if old != nil {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if old != nil {
		c.logger.Info("Closing existing connection")
		if err := old.Close(websocket.StatusNormalClosure, "reconnect"); err != nil {
			c.logger.Debug("Failed to close websocket", "error", err)
		}
		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect()
		}
	}

	go c.connect()
}

// Close tears the client down: the pending retry is cancelled and the live
// connection closed. Partially streamed text is discarded. No callbacks
// fire afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	cancel := c.cancel
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(websocket.StatusNormalClosure, "client closed"); err != nil {
			c.logger.Debug("Failed to close websocket", "error", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	c.asm.Reset()
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped && gen == c.gen
}

func (c *Client) connect() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	ctx := c.ctx
	c.state = StateConnecting
	c.mu.Unlock()

	target, err := c.endpoint.URL(ctx)
	var conn Conn
	if err == nil {
		c.logger.Info("Connecting to WebSocket", "url", RedactURL(target))
		conn, err = c.dialer.Dial(ctx, target)
	}
	if err != nil {
		if !c.current(gen) {
			return
		}
		c.logger.Error("WebSocket connection failed", "error", err)
		c.fireError(err)
		c.handleClose(gen)
		return
	}

	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "superseded")
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("WebSocket connected", "url", RedactURL(target))
	if c.opts.OnConnect != nil {
		c.opts.OnConnect()
	}

	if err := c.write(ctx, conn, protocol.NewPing(c.now())); err != nil {
		c.logger.Debug("Failed to send ping", "error", err)
	} else {
		c.logger.Debug("Sent ping")
	}

	go c.readLoop(ctx, gen, conn)
}

func (c *Client) readLoop(ctx context.Context, gen uint64, conn Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if !c.current(gen) {
				return
			}
			if status := websocket.CloseStatus(err); status != -1 {
				c.logger.Info("WebSocket closed by server", "code", status)
			} else {
				c.logger.Warn("WebSocket read error", "error", err)
				c.fireError(err)
			}
			_ = conn.Close(websocket.StatusNormalClosure, "")
			c.handleClose(gen)
			return
		}
		if !c.current(gen) {
			return
		}
		c.handleFrame(gen, data)
	}
}

// handleFrame dispatches one frame of connection gen. The generation is
// checked again before each emission; a callback already running when
// Reconnect supersedes gen still completes.
func (c *Client) handleFrame(gen uint64, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.logger.Debug("Non-JSON WebSocket message", "data", string(data))
		c.emitFor(gen, protocol.NewRaw(string(data), c.now()))
		return
	}

	c.logger.Debug("Received message", "type", msg.Type)
	switch msg.Type {
	case protocol.TypePong:
		if !msg.Timestamp.IsZero() {
			c.logger.Debug("Received pong", "latency", c.now().Sub(msg.Timestamp.Time), "server_time", msg.ServerTime)
		}
		return
	case protocol.TypeAIChunk, protocol.TypeJobCompleted, protocol.TypeJobUpdate:
	case protocol.TypeError:
		c.logger.Error("WebSocket error message", "error", msg.Error)
	default:
		c.logger.Warn("Unhandled message type", "type", msg.Type)
	}

	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.last = &msg
	c.mu.Unlock()

	for _, out := range c.asm.Process(msg) {
		c.emitFor(gen, out)
	}
}

// handleClose runs the close path for connection gen: notify, then either
// schedule the next attempt or give up.
func (c *Client) handleClose(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.gen++
	closedGen := c.gen
	c.state = StateClosed
	c.mu.Unlock()

	c.logger.Info("WebSocket disconnected")
	if c.opts.OnDisconnect != nil {
		c.opts.OnDisconnect()
	}

	c.mu.Lock()
	if c.stopped || c.gen != closedGen {
		c.mu.Unlock()
		return
	}
	if c.attempts >= c.opts.MaxReconnectAttempts {
		c.state = StateExhausted
		c.mu.Unlock()
		c.logger.Warn("Max reconnection attempts reached", "max_attempts", c.opts.MaxReconnectAttempts)
		c.fireError(ErrMaxReconnectAttempts)
		return
	}
	c.attempts++
	attempt := c.attempts
	delay := Backoff(c.opts.ReconnectInterval, attempt)
	c.timer = time.AfterFunc(delay, func() { c.retry(closedGen) })
	c.mu.Unlock()

	c.logger.Info("Reconnecting", "delay", delay, "attempt", attempt, "max_attempts", c.opts.MaxReconnectAttempts)
}

func (c *Client) retry(gen uint64) {
	c.mu.Lock()
	if c.stopped || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	attempt := c.attempts
	c.mu.Unlock()

	c.logger.Info("Attempting to reconnect", "attempt", attempt, "max_attempts", c.opts.MaxReconnectAttempts)
	c.connect()
}

func (c *Client) write(ctx context.Context, conn Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Client) emitFor(gen uint64, msg protocol.Message) {
	if c.opts.OnMessage == nil || !c.current(gen) {
		return
	}
	c.opts.OnMessage(msg)
}

func (c *Client) fireError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}

// redactURL hides token query values.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has("token") {
		return raw
	}
	q.Set("token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
