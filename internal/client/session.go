// Package client assembles the engine subsystems into a single session:
// one supervised subprocess, one request bridge, one trigger state
// machine, one suggestion cursor, and one status poller. All session
// state lives on the Session value; there are no package globals.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/dshills/tabnine/internal/bridge"
	"github.com/dshills/tabnine/internal/config"
	"github.com/dshills/tabnine/internal/logging"
	"github.com/dshills/tabnine/internal/poller"
	"github.com/dshills/tabnine/internal/process"
	"github.com/dshills/tabnine/internal/protocol"
	"github.com/dshills/tabnine/internal/suggest"
	"github.com/dshills/tabnine/internal/trigger"
)

// identifierRegexTTL bounds how long a cached identifier pattern is
// trusted before the engine is asked again.
const identifierRegexTTL = time.Hour

// Options configures a session.
type Options struct {
	// Config supplies tunables. Nil means config.Default().
	Config *config.Config

	// Surface is the host's text-editing collaborator.
	Surface suggest.Surface

	// Filename names the file behind the surface for engine requests.
	// Nil defaults to "untitled".
	Filename func() string

	// Roots provides open project root paths for workspace reports.
	Roots func() []string

	// Predicates gate automatic completion requests.
	Predicates trigger.Predicates

	// BufferLive re-validates the buffer at debounce-fire time.
	BufferLive func() bool

	// Messages receives user-facing engine messages. Nil routes them
	// to the logger.
	Messages func(lines []string)

	// Logger receives client trace output.
	Logger *logging.Logger
}

// Session owns the engine subprocess and the completion machinery
// around it.
type Session struct {
	id  string
	cfg *config.Config
	log *logging.Logger

	surface  suggest.Surface
	filename func() string

	sup    *process.Supervisor
	bridge *bridge.Bridge
	trig   *trigger.Trigger
	cursor *suggest.Cursor
	poll   *poller.Poller

	regexCache *ttlcache.Cache[string, string]
	cacheStop  sync.Once
}

// New assembles a session. The engine process is not spawned until
// Start or the first request.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := opts.Logger
	if log == nil {
		log = logging.Null
	}
	id := uuid.NewString()
	log = log.WithField("session", id[:8])

	s := &Session{
		id:       id,
		cfg:      cfg,
		log:      log,
		surface:  opts.Surface,
		filename: opts.Filename,
		cursor:   suggest.NewCursor(),
	}
	if s.filename == nil {
		s.filename = func() string { return "untitled" }
	}

	s.sup = process.New(process.Config{
		BinaryRoot:  cfg.BinaryRoot,
		BinaryPath:  cfg.BinaryPath,
		ClientID:    cfg.Client,
		LogFilePath: cfg.LogFile,
		LogLevel:    engineLogLevel(cfg.LogLevel),
		MaxRestarts: cfg.MaxRestarts,
		Logger:      log,
	})

	sink := opts.Messages
	if sink == nil {
		sink = func(lines []string) {
			for _, line := range lines {
				log.Info("engine message: %s", line)
			}
		}
	}

	s.bridge = bridge.New(s.sup, bridge.Config{
		Version: cfg.ProtocolVersion,
		Wait:    cfg.Wait(),
		Sink:    sink,
		Logger:  log,
	})
	s.sup.OnFrame(s.bridge.HandleFrame)

	s.trig = trigger.New(trigger.Config{
		IdleInterval:   cfg.IdleInterval(),
		IgnoreCommands: cfg.IgnoreCommands,
		Predicates:     opts.Predicates,
		BufferLive:     opts.BufferLive,
		Dismiss:        func() { s.cursor.Abort() },
		Request:        s.requestCompletion,
		Logger:         log,
	})

	s.poll = poller.New(s.bridge, poller.Config{
		Interval: cfg.PollInterval(),
		Roots:    opts.Roots,
		Logger:   log,
	})

	s.regexCache = ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](identifierRegexTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go s.regexCache.Start()

	return s
}

// engineLogLevel maps the client log level onto the engine's flag
// vocabulary.
func engineLogLevel(level string) string {
	switch logging.ParseLevel(level) {
	case logging.LevelDebug:
		return "Debug"
	case logging.LevelInfo:
		return "Info"
	case logging.LevelError:
		return "Error"
	default:
		return "Warn"
	}
}

// ID returns the session identifier used in log correlation.
func (s *Session) ID() string {
	return s.id
}

// Start spawns the engine and begins status polling.
func (s *Session) Start() error {
	if err := s.sup.Start(); err != nil {
		return err
	}
	s.poll.Stop()
	s.poll.Start()
	return nil
}

// Stop tears the session down. Safe to call more than once.
func (s *Session) Stop() {
	s.poll.Stop()
	s.trig.Cancel()
	s.cursor.Abort()
	s.sup.Stop()
	s.cacheStop.Do(s.regexCache.Stop)
}

// Restart clears the disabled state and restart counter, spawns a
// fresh engine, and re-arms the status poll timer.
func (s *Session) Restart() error {
	if err := s.sup.Restart(); err != nil {
		return err
	}
	s.poll.Stop()
	s.poll.Start()
	return nil
}

// --- Editor event feed ---

// NoteMutation records a buffer mutation.
func (s *Session) NoteMutation() {
	s.trig.NoteMutation()
}

// NoteCommand records that a non-inserting editor command finished.
func (s *Session) NoteCommand(name string) {
	s.trig.NoteCommand(name)
}

// NoteInsert records a completed self-insert of ch. When the inserted
// character matches the head of the visible suggestion it is organic
// consumption: the last remaining character auto-accepts, anything
// earlier just advances the displayed text. Otherwise the insert is an
// ordinary edit and resets the trigger.
func (s *Session) NoteInsert(ch rune) {
	switch s.cursor.Consume(ch) {
	case suggest.ConsumeAccept:
		s.Accept()
	case suggest.ConsumeAdvance:
		// Suggestion remains visible, one character shorter.
	default:
		s.trig.NoteCommand("self-insert-command")
	}
}

// --- Command surface ---

// TriggerCompletion issues a completion request immediately, bypassing
// the debounce and version gate.
func (s *Session) TriggerCompletion() {
	s.requestCompletion()
}

// Accept splices the selected candidate into the surface.
func (s *Session) Accept() bool {
	if !s.cursor.Accept(s.surface) {
		return false
	}
	s.trig.MarkServed()
	return true
}

// CycleNext advances the suggestion selection, wrapping.
func (s *Session) CycleNext() {
	s.cursor.Next()
}

// CyclePrev moves the suggestion selection backward, wrapping.
func (s *Session) CyclePrev() {
	s.cursor.Prev()
}

// Abort discards the visible suggestion without editing the buffer and
// cancels any pending debounce timer. Safe to call repeatedly.
func (s *Session) Abort() {
	active := s.cursor.Abort()
	s.trig.Cancel()
	if active {
		s.trig.MarkServed()
	}
}

// Suggestion returns the suggestion cursor for host rendering.
func (s *Session) Suggestion() *suggest.Cursor {
	return s.cursor
}

// requestCompletion builds and sends an Autocomplete request from the
// current surface state, then loads any candidates into the cursor.
// Every attempt, fruitful or not, counts as a served decision so the
// version gate closes until the buffer changes again.
func (s *Session) requestCompletion() {
	defer s.trig.MarkServed()

	if s.surface == nil {
		return
	}

	before, fromStart := s.surface.TextBefore(s.cfg.ContextChars)
	after, toEnd := s.surface.TextAfter(s.cfg.ContextChars)

	req := protocol.Request{Autocomplete: &protocol.AutocompleteRequest{
		Before:                  before,
		After:                   after,
		Filename:                s.filename(),
		RegionIncludesBeginning: fromStart,
		RegionIncludesEnd:       toEnd,
		MaxNumResults:           s.cfg.MaxResults,
		CorrelationID:           s.bridge.NextCorrelationID(),
	}}

	resp, err := s.bridge.Request(context.Background(), req)
	if err != nil {
		s.log.Debug("completion request failed: %v", err)
		return
	}
	if resp == nil {
		return
	}
	if s.cursor.Load(resp, s.surface.Cursor()) {
		s.log.Debug("loaded %d candidates", len(resp.Results))
	}
}

// --- Direct engine queries ---

// AuthenticatedUser returns the engine's authenticated user, preferring
// the poller's cached state over a fresh request.
func (s *Session) AuthenticatedUser(ctx context.Context) (string, error) {
	if name := s.poll.UserName(); name != "" {
		return name, nil
	}

	resp, err := s.bridge.Request(ctx, protocol.Request{State: &protocol.StateRequest{Dummy: true}})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.UserName, nil
}

// ConfigurationHubURL asks the engine for its configuration hub URL.
func (s *Session) ConfigurationHubURL(ctx context.Context) (string, error) {
	resp, err := s.bridge.Request(ctx, protocol.Request{Configuration: &protocol.ConfigurationRequest{Quiet: true}})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Message, nil
}

// Prefetch warms the engine's model for a file.
func (s *Session) Prefetch(ctx context.Context, filename string) error {
	_, err := s.bridge.Request(ctx, protocol.Request{Prefetch: &protocol.PrefetchRequest{Filename: filename}})
	return err
}

// IdentifierRegex returns the engine's identifier pattern for a file,
// cached per filename.
func (s *Session) IdentifierRegex(ctx context.Context, filename string) (string, error) {
	if item := s.regexCache.Get(filename); item != nil {
		return item.Value(), nil
	}

	resp, err := s.bridge.Request(ctx, protocol.Request{GetIdentifierRegex: &protocol.GetIdentifierRegexRequest{Filename: filename}})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == "" {
		return "", nil
	}

	s.regexCache.Set(filename, resp.Message, ttlcache.DefaultTTL)
	return resp.Message, nil
}

// EngineState returns the poller's last decoded state response.
func (s *Session) EngineState() *protocol.Response {
	return s.poll.LastState()
}

// Running reports whether the engine process is live.
func (s *Session) Running() bool {
	return s.sup.Running()
}

// Disabled reports whether the supervisor hit its restart ceiling.
func (s *Session) Disabled() bool {
	return s.sup.Disabled()
}
