package wsclient

import (
	"testing"

	"github.com/ashureev/iwe-console/internal/protocol"
)

func TestAssemblerReassemblesStream(t *testing.T) {
	a := NewAssembler()

	out := a.Process(protocol.Message{Type: protocol.TypeAIChunk, Chunk: "Hel"})
	if len(out) != 1 || out[0].Type != protocol.TypeStreamUpdate || out[0].Text() != "Hel" || out[0].Done {
		t.Fatalf("unexpected first update: %+v", out)
	}

	out = a.Process(protocol.Message{Type: protocol.TypeAIChunk, Chunk: "lo"})
	if len(out) != 1 || out[0].Text() != "Hello" || out[0].Done {
		t.Fatalf("unexpected second update: %+v", out)
	}

	completed := protocol.Message{Type: protocol.TypeJobCompleted}
	out = a.Process(completed)
	if len(out) != 2 {
		t.Fatalf("expected stream_complete plus original, got %+v", out)
	}
	if out[0].Type != protocol.TypeStreamComplete || out[0].Text() != "Hello" || !out[0].Done {
		t.Fatalf("unexpected completion: %+v", out[0])
	}
	if out[1].Type != protocol.TypeJobCompleted {
		t.Fatalf("expected original job_completed forwarded, got %+v", out[1])
	}
	if got := a.Buffered(); got != "" {
		t.Fatalf("expected empty buffer after completion, got %q", got)
	}
}

func TestAssemblerForwardsOtherTypes(t *testing.T) {
	a := NewAssembler()
	a.Process(protocol.Message{Type: protocol.TypeAIChunk, Chunk: "partial"})

	for _, typ := range []string{protocol.TypeJobUpdate, protocol.TypeError, "custom"} {
		out := a.Process(protocol.Message{Type: typ})
		if len(out) != 1 || out[0].Type != typ {
			t.Fatalf("expected %s forwarded unchanged, got %+v", typ, out)
		}
	}
	if got := a.Buffered(); got != "partial" {
		t.Fatalf("other types must not touch the buffer, got %q", got)
	}

	a.Reset()
	if got := a.Buffered(); got != "" {
		t.Fatalf("expected empty buffer after Reset, got %q", got)
	}
}

func TestAssemblerCompletionWithoutChunks(t *testing.T) {
	a := NewAssembler()
	out := a.Process(protocol.Message{Type: protocol.TypeJobCompleted})
	if len(out) != 2 || out[0].Text() != "" || !out[0].Done {
		t.Fatalf("unexpected output: %+v", out)
	}
}
