package protocol

import (
	"testing"
)

func TestFramer_SplitChunks(t *testing.T) {
	var f Framer

	frame, ok := f.Feed([]byte(`{"a":1}`))
	if ok {
		t.Fatalf("Feed without newline emitted frame %q", frame)
	}

	frame, ok = f.Feed([]byte("\n"))
	if !ok {
		t.Fatal("Feed with newline did not emit a frame")
	}
	if got := string(frame); got != `{"a":1}` {
		t.Errorf("frame = %q, want %q", got, `{"a":1}`)
	}
	if f.Pending() != 0 {
		t.Errorf("Pending() = %d after frame, want 0", f.Pending())
	}
}

func TestFramer_CRLFTerminatorChunk(t *testing.T) {
	var f Framer

	f.Feed([]byte(`{"b":2}`))
	frame, ok := f.Feed([]byte("\r\n"))
	if !ok {
		t.Fatal("CRLF chunk did not complete the frame")
	}
	if got := string(frame); got != `{"b":2}` {
		t.Errorf("frame = %q, want %q", got, `{"b":2}`)
	}
}

func TestFramer_NextDocumentAfterBareTerminator(t *testing.T) {
	var f Framer

	f.Feed([]byte(`{"a":1}`))
	if _, ok := f.Feed([]byte("\n")); !ok {
		t.Fatal("terminator chunk did not complete the frame")
	}

	frame, ok := f.Feed([]byte("{\"b\":2}\n"))
	if !ok {
		t.Fatal("second document not emitted")
	}
	if got := string(frame); got != `{"b":2}` {
		t.Errorf("frame = %q, want %q", got, `{"b":2}`)
	}
}

func TestFramer_SingleChunk(t *testing.T) {
	var f Framer

	frame, ok := f.Feed([]byte("{\"results\":[]}\n"))
	if !ok {
		t.Fatal("complete chunk did not emit a frame")
	}
	if got := string(frame); got != `{"results":[]}` {
		t.Errorf("frame = %q, want %q", got, `{"results":[]}`)
	}
}

func TestFramer_NullDiscarded(t *testing.T) {
	var f Framer

	if _, ok := f.Feed([]byte("null")); ok {
		t.Error("bare null emitted a frame")
	}
	if _, ok := f.Feed([]byte("null\n")); ok {
		t.Error("null heartbeat emitted a frame")
	}
	if f.Pending() != 0 {
		t.Errorf("Pending() = %d after null, want 0", f.Pending())
	}
}

func TestFramer_EmptyDiscarded(t *testing.T) {
	var f Framer

	if _, ok := f.Feed(nil); ok {
		t.Error("empty chunk emitted a frame")
	}
	if _, ok := f.Feed([]byte("  ")); ok {
		t.Error("whitespace chunk emitted a frame")
	}
	if f.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", f.Pending())
	}
}

func TestFramer_NullBetweenFrames(t *testing.T) {
	var f Framer

	f.Feed([]byte(`{"a":`))
	f.Feed([]byte("null\n")) // heartbeat must not contaminate the buffer
	frame, ok := f.Feed([]byte("1}\n"))
	if !ok {
		t.Fatal("frame not emitted")
	}
	if got := string(frame); got != `{"a":1}` {
		t.Errorf("frame = %q, want %q", got, `{"a":1}`)
	}
}

func TestFramer_Reset(t *testing.T) {
	var f Framer

	f.Feed([]byte(`{"partial":`))
	f.Reset()
	if f.Pending() != 0 {
		t.Errorf("Pending() = %d after Reset, want 0", f.Pending())
	}

	frame, ok := f.Feed([]byte("{}\n"))
	if !ok || string(frame) != "{}" {
		t.Errorf("frame after Reset = %q, %v; want %q, true", frame, ok, "{}")
	}
}
