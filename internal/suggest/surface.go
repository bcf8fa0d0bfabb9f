// Package suggest holds the decoded multi-candidate response and the
// accept/cycle/abort protocol that splices a candidate into the buffer.
package suggest

// Surface is the text-editing collaborator supplied by the host editor.
// All offsets and counts are in characters, relative to the cursor.
type Surface interface {
	// Insert inserts text at the cursor, leaving the cursor after it.
	Insert(text string)

	// DeleteBackward removes n characters before the cursor.
	DeleteBackward(n int)

	// DeleteForward removes n characters after the cursor.
	DeleteForward(n int)

	// MoveCursor moves the cursor by delta characters.
	MoveCursor(delta int)

	// Cursor returns the cursor position as a character offset.
	Cursor() int

	// AtLineEnd reports whether the cursor sits at the end of its line.
	AtLineEnd() bool

	// TextBefore returns up to max characters before the cursor and
	// whether that region reaches the beginning of the buffer.
	TextBefore(max int) (text string, fromStart bool)

	// TextAfter returns up to max characters after the cursor and
	// whether that region reaches the end of the buffer.
	TextAfter(max int) (text string, toEnd bool)
}
