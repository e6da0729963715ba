// Package protocol defines the JSON messages exchanged with the streaming
// backend over WebSocket.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Message types. The first group arrives from the backend; the second group
// is synthesized by the client.
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeAIChunk      = "ai_chunk"
	TypeJobUpdate    = "job_update"
	TypeJobCompleted = "job_completed"
	TypeError        = "error"

	TypeStreamUpdate   = "stream_update"
	TypeStreamComplete = "stream_complete"
	TypeRaw            = "raw"
)

var errNotObject = errors.New("frame is not a JSON object")

// Message is a single inbound or synthesized message, discriminated by Type.
type Message struct {
	Type       string    `json:"type"`
	Chunk      string    `json:"chunk,omitempty"`
	Data       any       `json:"data,omitempty"`
	Done       bool      `json:"done,omitempty"`
	Error      any       `json:"error,omitempty"`
	ServerTime any       `json:"serverTime,omitempty"`
	Timestamp  Timestamp `json:"timestamp,omitzero"`

	// Raw holds the original frame for decoded messages.
	Raw json.RawMessage `json:"-"`
}

// Text returns Data when it is a string.
func (m Message) Text() string {
	s, _ := m.Data.(string)
	return s
}

// Decode parses a text frame. Frames that are not a JSON object are rejected
// so the caller can fall back to a raw message.
func Decode(frame []byte) (Message, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Message{}, errNotObject
	}

	var m Message
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return Message{}, err
	}
	m.Raw = append(json.RawMessage(nil), frame...)
	return m, nil
}

// NewRaw wraps a frame that could not be decoded.
func NewRaw(text string, now time.Time) Message {
	return Message{Type: TypeRaw, Data: text, Timestamp: Timestamp{now}}
}

// NewStreamUpdate reports the text accumulated so far.
func NewStreamUpdate(data string, now time.Time) Message {
	return Message{Type: TypeStreamUpdate, Data: data, Done: false, Timestamp: Timestamp{now}}
}

// NewStreamComplete reports the full accumulated text.
func NewStreamComplete(data string, now time.Time) Message {
	return Message{Type: TypeStreamComplete, Data: data, Done: true, Timestamp: Timestamp{now}}
}

// Ping is the liveness frame sent right after a connection opens.
type Ping struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// NewPing creates a ping stamped with now in epoch milliseconds.
func NewPing(now time.Time) Ping {
	return Ping{Type: TypePing, Timestamp: now.UnixMilli()}
}

// Timestamp accepts epoch milliseconds or an RFC 3339 string and always
// encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler. Unrecognised values leave the
// timestamp zero instead of failing the whole message.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.Time = parsed
		} else if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
		}
		return nil
	}

	if ms, err := strconv.ParseFloat(string(b), 64); err == nil {
		t.Time = time.UnixMilli(int64(ms))
	}
	return nil
}
