// Package trigger decides when to ask the engine for completions. It
// observes buffer mutations and command completions, tracks a monotonic
// buffer version, and debounces into a single request once the buffer
// has been quiet for the idle interval.
package trigger

import (
	"strings"
	"sync"
	"time"

	"github.com/dshills/tabnine/internal/logging"
)

// DefaultIdleInterval is the debounce quiet period used when the config
// leaves it unset.
const DefaultIdleInterval = 400 * time.Millisecond

// DefaultNamespacePrefix marks this subsystem's own commands; their
// completion never resets or re-arms the trigger.
const DefaultNamespacePrefix = "tabnine-"

// State is the trigger state machine's current state.
type State int

const (
	// StateIdle means nothing is armed or in flight.
	StateIdle State = iota
	// StatePendingDebounce means the idle timer is armed.
	StatePendingDebounce
	// StateRequesting means a completion request is in flight.
	StateRequesting
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingDebounce:
		return "pending"
	case StateRequesting:
		return "requesting"
	default:
		return "unknown"
	}
}

// Config configures the trigger.
type Config struct {
	// IdleInterval is the quiet period before a request fires.
	IdleInterval time.Duration

	// NamespacePrefix filters out this subsystem's own commands.
	NamespacePrefix string

	// IgnoreCommands are command names that never disturb the trigger.
	IgnoreCommands []string

	// Predicates gate the request at timer-fire time.
	Predicates Predicates

	// BufferLive re-validates at timer-fire time that the originating
	// buffer still exists and is current. Nil means always live.
	BufferLive func() bool

	// Dismiss clears any visible suggestion when a foreign command
	// completes. May be nil.
	Dismiss func()

	// Request issues the completion request. Runs on the timer
	// goroutine after revalidation passes.
	Request func()

	// Logger receives trigger trace output.
	Logger *logging.Logger
}

// Trigger is the debounced completion trigger state machine.
type Trigger struct {
	mu sync.Mutex

	cfg    Config
	log    *logging.Logger
	deb    *Debouncer
	ignore map[string]struct{}

	version    uint64
	lastServed uint64
	state      State
}

// New creates a trigger in the Idle state.
func New(cfg Config) *Trigger {
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = DefaultNamespacePrefix
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Null
	}

	t := &Trigger{
		cfg:    cfg,
		log:    log.WithComponent("trigger"),
		ignore: make(map[string]struct{}, len(cfg.IgnoreCommands)),
	}
	for _, name := range cfg.IgnoreCommands {
		t.ignore[name] = struct{}{}
	}
	t.deb = NewDebouncer(cfg.IdleInterval, t.fire)
	return t
}

// NoteMutation records a buffer mutation. Always increments the buffer
// version, in every state.
func (t *Trigger) NoteMutation() {
	t.mu.Lock()
	t.version++
	t.mu.Unlock()
}

// NoteCommand records that an editor command finished. Commands in this
// subsystem's namespace and names on the ignore list are transparent.
// Everything else dismisses the visible suggestion, cancels a pending
// timer, and re-arms the debounce when the buffer changed since the
// last served completion.
func (t *Trigger) NoteCommand(name string) {
	if strings.HasPrefix(name, t.cfg.NamespacePrefix) {
		return
	}
	if _, skip := t.ignore[name]; skip {
		return
	}

	if t.cfg.Dismiss != nil {
		t.cfg.Dismiss()
	}
	t.deb.Cancel()

	t.mu.Lock()
	if t.version == t.lastServed {
		t.state = StateIdle
		t.mu.Unlock()
		return
	}
	t.state = StatePendingDebounce
	t.mu.Unlock()

	t.deb.Call()
}

// fire runs when the idle timer elapses. The originating buffer and the
// predicate set are re-validated here, not at arm time, since either
// may have changed during the quiet period.
func (t *Trigger) fire() {
	t.mu.Lock()
	if t.version == t.lastServed {
		t.state = StateIdle
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if t.cfg.BufferLive != nil && !t.cfg.BufferLive() {
		t.setState(StateIdle)
		return
	}
	if !t.cfg.Predicates.Satisfied() {
		t.log.Debug("predicates rejected completion request")
		t.setState(StateIdle)
		return
	}

	t.setState(StateRequesting)
	if t.cfg.Request != nil {
		t.cfg.Request()
	}
	t.setState(StateIdle)
}

// MarkServed snapshots the current buffer version as the last-served
// version. Called when a completion is served, accepted, or aborted; a
// new request only arms once the buffer diverges from this snapshot.
func (t *Trigger) MarkServed() {
	t.mu.Lock()
	t.lastServed = t.version
	t.mu.Unlock()
}

// Cancel cancels a pending debounce timer without touching versions.
func (t *Trigger) Cancel() {
	t.deb.Cancel()
	t.setState(StateIdle)
}

// Pending reports whether the idle timer is armed.
func (t *Trigger) Pending() bool {
	return t.deb.IsPending()
}

// Version returns the current buffer version.
func (t *Trigger) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// LastServed returns the last-served version snapshot.
func (t *Trigger) LastServed() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastServed
}

// State returns the current state.
func (t *Trigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trigger) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}
