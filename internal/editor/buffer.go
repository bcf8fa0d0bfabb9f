// Package editor provides an in-memory text buffer implementing the
// editing surface the suggestion machinery splices into. Hosts with a
// real editor supply their own surface; this one backs the CLI and the
// tests.
package editor

import (
	"sync"
)

// Buffer is a rune-addressed text buffer with a cursor. All offsets are
// character offsets, matching the surface contract.
type Buffer struct {
	mu       sync.Mutex
	runes    []rune
	cursor   int
	onChange func()
}

// NewBuffer creates a buffer holding text with the cursor at the end.
func NewBuffer(text string) *Buffer {
	runes := []rune(text)
	return &Buffer{
		runes:  runes,
		cursor: len(runes),
	}
}

// SetChangeHook registers a callback invoked after every text mutation.
// Cursor motion alone does not fire it.
func (b *Buffer) SetChangeHook(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Insert inserts text at the cursor, leaving the cursor after it.
func (b *Buffer) Insert(text string) {
	b.mu.Lock()
	ins := []rune(text)
	rest := append([]rune(nil), b.runes[b.cursor:]...)
	b.runes = append(b.runes[:b.cursor], append(ins, rest...)...)
	b.cursor += len(ins)
	hook := b.onChange
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// DeleteBackward removes n characters before the cursor.
func (b *Buffer) DeleteBackward(n int) {
	b.mu.Lock()
	if n > b.cursor {
		n = b.cursor
	}
	if n <= 0 {
		b.mu.Unlock()
		return
	}
	b.runes = append(b.runes[:b.cursor-n], b.runes[b.cursor:]...)
	b.cursor -= n
	hook := b.onChange
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// DeleteForward removes n characters after the cursor.
func (b *Buffer) DeleteForward(n int) {
	b.mu.Lock()
	if n > len(b.runes)-b.cursor {
		n = len(b.runes) - b.cursor
	}
	if n <= 0 {
		b.mu.Unlock()
		return
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+n:]...)
	hook := b.onChange
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// MoveCursor moves the cursor by delta characters, clamped to the
// buffer bounds.
func (b *Buffer) MoveCursor(delta int) {
	b.mu.Lock()
	b.cursor += delta
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor > len(b.runes) {
		b.cursor = len(b.runes)
	}
	b.mu.Unlock()
}

// SetCursor places the cursor at an absolute character offset.
func (b *Buffer) SetCursor(offset int) {
	b.mu.Lock()
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.runes) {
		offset = len(b.runes)
	}
	b.cursor = offset
	b.mu.Unlock()
}

// Cursor returns the cursor position as a character offset.
func (b *Buffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// AtLineEnd reports whether the cursor sits at the end of its line.
func (b *Buffer) AtLineEnd() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor == len(b.runes) || b.runes[b.cursor] == '\n'
}

// TextBefore returns up to max characters before the cursor and whether
// that region reaches the beginning of the buffer.
func (b *Buffer) TextBefore(max int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := 0
	if max >= 0 && b.cursor-max > 0 {
		start = b.cursor - max
	}
	return string(b.runes[start:b.cursor]), start == 0
}

// TextAfter returns up to max characters after the cursor and whether
// that region reaches the end of the buffer.
func (b *Buffer) TextAfter(max int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := len(b.runes)
	if max >= 0 && b.cursor+max < end {
		end = b.cursor + max
	}
	return string(b.runes[b.cursor:end]), end == len(b.runes)
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.runes)
}

// Len returns the buffer length in characters.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runes)
}
