package protocol

import (
	"bytes"
)

// Framer reassembles raw output chunks into complete newline-terminated
// frames. The engine writes one JSON document per line but the pipe may
// deliver it in arbitrary pieces; a frame is complete when a chunk ends
// with a newline.
//
// The engine occasionally emits a bare "null" token as a heartbeat.
// Those chunks, and empty ones, are discarded before framing so they
// never contaminate an in-progress document.
type Framer struct {
	buf bytes.Buffer
}

// Feed appends a chunk to the in-progress frame. If the chunk completes
// a frame, the assembled frame is returned (without its trailing
// newline) with ok = true and the buffer is cleared.
func (f *Framer) Feed(chunk []byte) (frame []byte, ok bool) {
	trimmed := bytes.TrimSpace(chunk)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	// A whitespace-only chunk is noise on an empty buffer, but with
	// bytes pending it may carry the terminator for them.
	if len(trimmed) == 0 && f.buf.Len() == 0 {
		return nil, false
	}

	f.buf.Write(chunk)

	if !bytes.HasSuffix(chunk, []byte("\n")) {
		return nil, false
	}

	frame = bytes.TrimRight(f.buf.Bytes(), "\r\n")
	frame = append([]byte(nil), frame...)
	f.buf.Reset()
	return frame, true
}

// Reset discards any partially accumulated frame. Called when the
// subprocess is replaced so a new process never inherits half a
// document from the old one.
func (f *Framer) Reset() {
	f.buf.Reset()
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (f *Framer) Pending() int {
	return f.buf.Len()
}
