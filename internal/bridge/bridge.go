// Package bridge converts the supervisor's asynchronous frame delivery
// into a synchronous request/response call with a bounded wait.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/tabnine/internal/logging"
	"github.com/dshills/tabnine/internal/protocol"
)

// DefaultWait is the response wait budget used when the config leaves
// it unset.
const DefaultWait = time.Second

// Sender is the supervisor surface the bridge writes through.
type Sender interface {
	Send(data []byte) error
	ResetRestartCount()
}

// MessageSink receives user-facing messages embedded in responses.
type MessageSink func(lines []string)

// Config configures the bridge.
type Config struct {
	// Version is the protocol version sent in every envelope.
	Version string

	// Wait is how long a caller blocks for a response before the
	// request resolves to an absent response.
	Wait time.Duration

	// Sink receives user_message lines. May be nil.
	Sink MessageSink

	// Logger receives bridge trace output.
	Logger *logging.Logger
}

// Bridge serializes blocking requests over the engine's async output
// stream. Requests are strictly one-at-a-time: a mutex holds each
// caller until the previous request resolves, and each request gets its
// own response channel, so a late frame from a timed-out request can
// never be mistaken for the answer to a newer one.
type Bridge struct {
	reqMu sync.Mutex // serializes the request-then-wait discipline

	mu      sync.Mutex
	pending chan *protocol.Response

	sender      Sender
	version     string
	wait        time.Duration
	sink        MessageSink
	log         *logging.Logger
	correlation atomic.Int64
}

// New creates a bridge over the given sender. Wire HandleFrame to the
// supervisor's frame handler before issuing requests.
func New(sender Sender, cfg Config) *Bridge {
	if cfg.Version == "" {
		cfg.Version = protocol.DefaultVersion
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Null
	}
	return &Bridge{
		sender:  sender,
		version: cfg.Version,
		wait:    cfg.Wait,
		sink:    cfg.Sink,
		log:     log.WithComponent("bridge"),
	}
}

// NextCorrelationID returns the next request-sequence number for an
// Autocomplete request.
func (b *Bridge) NextCorrelationID() int64 {
	return b.correlation.Add(1)
}

// HandleFrame decodes a frame and routes it to the waiting request, if
// any. Frames with nobody waiting (poll responses arriving late,
// unsolicited engine chatter) are dropped after their user messages are
// forwarded.
func (b *Bridge) HandleFrame(frame []byte) {
	resp := protocol.Decode(frame)
	if resp == nil {
		b.log.Debug("discarding undecodable frame (%d bytes)", len(frame))
		return
	}

	if len(resp.UserMessage) > 0 && b.sink != nil {
		b.sink(resp.UserMessage)
	}

	b.mu.Lock()
	ch := b.pending
	b.mu.Unlock()

	if ch == nil {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

// Request sends a framed request and blocks up to the wait budget for
// the response. Timeout yields (nil, nil): an absent response is a
// valid, non-fatal outcome and callers must treat it as "no suggestion
// this time". Only transport-level failures (no binary installed,
// supervisor disabled) surface as errors.
func (b *Bridge) Request(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	b.reqMu.Lock()
	defer b.reqMu.Unlock()

	data, err := protocol.Encode(b.version, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *protocol.Response, 1)
	b.mu.Lock()
	b.pending = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		if b.pending == ch {
			b.pending = nil
		}
		b.mu.Unlock()
	}()

	if err := b.sender.Send(data); err != nil {
		return nil, err
	}

	var want int64
	if req.Autocomplete != nil {
		want = req.Autocomplete.CorrelationID
	}

	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			b.log.Debug("request %s timed out after %v", req.Kind(), b.wait)
			return nil, nil
		case resp := <-ch:
			// A stale frame from a superseded request carries the
			// wrong correlation id; keep waiting for the real answer.
			if want != 0 && resp.CorrelationID != 0 && resp.CorrelationID != want {
				b.log.Debug("dropping stale response (correlation %d, want %d)", resp.CorrelationID, want)
				continue
			}
			b.sender.ResetRestartCount()
			return resp, nil
		}
	}
}

// Wait returns the configured response wait budget.
func (b *Bridge) Wait() time.Duration {
	return b.wait
}
