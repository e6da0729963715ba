package wsclient

import (
	"strings"
	"sync"
	"time"

	"github.com/ashureev/iwe-console/internal/protocol"
)

// Assembler reassembles streamed chunks into complete responses.
// The buffer grows with each ai_chunk and is cleared when a job_completed
// message is processed or the owning client is closed.
type Assembler struct {
	mu  sync.Mutex
	buf strings.Builder
	now func() time.Time
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// Process returns the messages to forward for msg, in order.
func (a *Assembler) Process(msg protocol.Message) []protocol.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch msg.Type {
	case protocol.TypeAIChunk:
		a.buf.WriteString(msg.Chunk)
		return []protocol.Message{protocol.NewStreamUpdate(a.buf.String(), a.now())}
	case protocol.TypeJobCompleted:
		complete := protocol.NewStreamComplete(a.buf.String(), a.now())
		a.buf.Reset()
		return []protocol.Message{complete, msg}
	default:
		return []protocol.Message{msg}
	}
}

// Buffered returns the text accumulated since the last completion.
func (a *Assembler) Buffered() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf.String()
}

// Reset discards any accumulated text.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf.Reset()
}
