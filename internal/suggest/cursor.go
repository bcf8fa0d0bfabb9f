package suggest

import (
	"sync"

	"github.com/dshills/tabnine/internal/protocol"
)

// ConsumeResult describes how a typed character related to the visible
// suggestion.
type ConsumeResult int

const (
	// ConsumeMiss means the character did not match the suggestion.
	ConsumeMiss ConsumeResult = iota
	// ConsumeAdvance means the character consumed one suggestion
	// character and more remain.
	ConsumeAdvance
	// ConsumeAccept means the character consumed the final suggestion
	// character; the caller should accept now.
	ConsumeAccept
)

// Cursor holds the candidate list from one completion response and the
// selected index. It is created on a successful request and destroyed
// by accept or abort.
type Cursor struct {
	mu sync.Mutex

	candidates []protocol.Candidate
	index      int
	consumed   int
	anchor     int
	active     bool
}

// NewCursor returns an empty cursor with no active suggestion.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Load stores the candidates from a response and resets the selection.
// A nil response or empty candidate list is a no-op and reports false.
func (c *Cursor) Load(resp *protocol.Response, anchor int) bool {
	if resp == nil || len(resp.Results) == 0 {
		return false
	}

	c.mu.Lock()
	c.candidates = resp.Results
	c.index = 0
	c.consumed = 0
	c.anchor = anchor
	c.active = true
	c.mu.Unlock()
	return true
}

// Active reports whether a suggestion is visible.
func (c *Cursor) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Count returns the number of candidates.
func (c *Cursor) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.candidates)
}

// Index returns the selected candidate index.
func (c *Cursor) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Anchor returns the buffer position the suggestion was requested at.
func (c *Cursor) Anchor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor
}

// Selected returns the currently selected candidate.
func (c *Cursor) Selected() (protocol.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return protocol.Candidate{}, false
	}
	return c.candidates[c.index], true
}

// Next advances the selection, wrapping modulo the candidate count.
// No-op when no suggestion is visible.
func (c *Cursor) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.index = (c.index + 1) % len(c.candidates)
	c.consumed = 0
}

// Prev moves the selection backward, wrapping.
func (c *Cursor) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.index = (c.index - 1 + len(c.candidates)) % len(c.candidates)
	c.consumed = 0
}

// Display returns the remaining suggestion text the host should render
// after the cursor: the untyped portion of new_prefix followed by
// new_suffix.
func (c *Cursor) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayLocked()
}

func (c *Cursor) displayLocked() string {
	if !c.active {
		return ""
	}
	cand := c.candidates[c.index]
	newPrefix := []rune(cand.NewPrefix)
	skip := len([]rune(cand.OldPrefix)) + c.consumed
	remainder := ""
	if skip < len(newPrefix) {
		remainder = string(newPrefix[skip:])
	}
	return remainder + cand.NewSuffix
}

// Consume records that the host inserted ch while the suggestion was
// visible. A character matching the head of the displayed text is
// organic consumption of the suggestion rather than a cancellable edit.
func (c *Cursor) Consume(ch rune) ConsumeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	display := []rune(c.displayLocked())
	if len(display) == 0 || display[0] != ch {
		return ConsumeMiss
	}

	c.consumed++
	if len(display) == 1 {
		return ConsumeAccept
	}
	return ConsumeAdvance
}

// Accept splices the selected candidate into the buffer: old_suffix
// characters are removed forward, old_prefix (plus any organically
// consumed characters) backward, then new_prefix and the suffix are
// inserted with the cursor placed immediately before the suffix. An
// empty new_suffix falls back to re-inserting old_suffix so existing
// text after the cursor is preserved. Reports whether an edit was made.
func (c *Cursor) Accept(s Surface) bool {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return false
	}
	cand := c.candidates[c.index]
	consumed := c.consumed
	c.clearLocked()
	c.mu.Unlock()

	suffix := cand.NewSuffix
	if suffix == "" {
		suffix = cand.OldSuffix
	}

	if n := len([]rune(cand.OldSuffix)); n > 0 {
		s.DeleteForward(n)
	}
	if n := len([]rune(cand.OldPrefix)) + consumed; n > 0 {
		s.DeleteBackward(n)
	}
	s.Insert(cand.NewPrefix + suffix)
	if n := len([]rune(suffix)); n > 0 {
		s.MoveCursor(-n)
	}
	return true
}

// Abort discards the suggestion without editing the buffer. Idempotent;
// reports whether a suggestion was actually discarded.
func (c *Cursor) Abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return false
	}
	c.clearLocked()
	return true
}

// clearLocked resets the cursor to the empty state (must hold mu).
func (c *Cursor) clearLocked() {
	c.candidates = nil
	c.index = 0
	c.consumed = 0
	c.anchor = 0
	c.active = false
}
