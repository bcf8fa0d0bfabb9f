package editor

import (
	"testing"
)

func TestBuffer_Insert(t *testing.T) {
	b := NewBuffer("hello")
	b.SetCursor(5)
	b.Insert(" world")

	if got := b.String(); got != "hello world" {
		t.Errorf("String() = %q, want %q", got, "hello world")
	}
	if got := b.Cursor(); got != 11 {
		t.Errorf("Cursor() = %d, want 11", got)
	}
}

func TestBuffer_InsertMiddle(t *testing.T) {
	b := NewBuffer("held")
	b.SetCursor(3)
	b.Insert("lo wor")

	if got := b.String(); got != "hello word" {
		t.Errorf("String() = %q, want %q", got, "hello word")
	}
}

func TestBuffer_DeleteBackward(t *testing.T) {
	b := NewBuffer("foobar")
	b.SetCursor(3)
	b.DeleteBackward(2)

	if got := b.String(); got != "fbar" {
		t.Errorf("String() = %q, want %q", got, "fbar")
	}
	if got := b.Cursor(); got != 1 {
		t.Errorf("Cursor() = %d, want 1", got)
	}
}

func TestBuffer_DeleteBackwardClamps(t *testing.T) {
	b := NewBuffer("ab")
	b.SetCursor(1)
	b.DeleteBackward(5)

	if got := b.String(); got != "b" {
		t.Errorf("String() = %q, want %q", got, "b")
	}
	if got := b.Cursor(); got != 0 {
		t.Errorf("Cursor() = %d, want 0", got)
	}
}

func TestBuffer_DeleteForward(t *testing.T) {
	b := NewBuffer("foobar")
	b.SetCursor(3)
	b.DeleteForward(2)

	if got := b.String(); got != "foor" {
		t.Errorf("String() = %q, want %q", got, "foor")
	}
	if got := b.Cursor(); got != 3 {
		t.Errorf("Cursor() = %d, want 3", got)
	}
}

func TestBuffer_MoveCursorClamps(t *testing.T) {
	b := NewBuffer("abc")
	b.MoveCursor(-99)
	if got := b.Cursor(); got != 0 {
		t.Errorf("Cursor() = %d, want 0", got)
	}
	b.MoveCursor(99)
	if got := b.Cursor(); got != 3 {
		t.Errorf("Cursor() = %d, want 3", got)
	}
}

func TestBuffer_AtLineEnd(t *testing.T) {
	b := NewBuffer("ab\ncd")

	b.SetCursor(2)
	if !b.AtLineEnd() {
		t.Error("AtLineEnd() = false before newline")
	}
	b.SetCursor(1)
	if b.AtLineEnd() {
		t.Error("AtLineEnd() = true mid-line")
	}
	b.SetCursor(5)
	if !b.AtLineEnd() {
		t.Error("AtLineEnd() = false at end of buffer")
	}
}

func TestBuffer_TextBefore(t *testing.T) {
	b := NewBuffer("hello world")
	b.SetCursor(5)

	got, atStart := b.TextBefore(3)
	if got != "llo" || atStart {
		t.Errorf("TextBefore(3) = %q, %v; want %q, false", got, atStart, "llo")
	}

	got, atStart = b.TextBefore(100)
	if got != "hello" || !atStart {
		t.Errorf("TextBefore(100) = %q, %v; want %q, true", got, atStart, "hello")
	}
}

func TestBuffer_TextAfter(t *testing.T) {
	b := NewBuffer("hello world")
	b.SetCursor(5)

	got, atEnd := b.TextAfter(3)
	if got != " wo" || atEnd {
		t.Errorf("TextAfter(3) = %q, %v; want %q, false", got, atEnd, " wo")
	}

	got, atEnd = b.TextAfter(100)
	if got != " world" || !atEnd {
		t.Errorf("TextAfter(100) = %q, %v; want %q, true", got, atEnd, " world")
	}
}

func TestBuffer_RuneOffsets(t *testing.T) {
	b := NewBuffer("héllo")
	b.SetCursor(2)
	b.DeleteBackward(1)

	if got := b.String(); got != "hllo" {
		t.Errorf("String() = %q, want %q", got, "hllo")
	}
}

func TestBuffer_ChangeHook(t *testing.T) {
	b := NewBuffer("abc")
	calls := 0
	b.SetChangeHook(func() { calls++ })

	b.Insert("x")
	b.DeleteBackward(1)
	b.SetCursor(1)
	b.DeleteForward(1)
	b.MoveCursor(1)

	if calls != 3 {
		t.Errorf("change hook fired %d times, want 3 (mutations only)", calls)
	}
}

func TestBuffer_NoopDeletesSkipHook(t *testing.T) {
	b := NewBuffer("abc")
	b.SetCursor(0)
	calls := 0
	b.SetChangeHook(func() { calls++ })

	b.DeleteBackward(1)
	b.SetCursor(3)
	b.DeleteForward(1)

	if calls != 0 {
		t.Errorf("change hook fired %d times on no-op deletes, want 0", calls)
	}
}
