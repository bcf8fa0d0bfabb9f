// Package poller issues periodic low-priority engine queries: a state
// request and a workspace-roots report. Polling is best-effort
// telemetry; failures are swallowed and never interrupt editing.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/tabnine/internal/logging"
	"github.com/dshills/tabnine/internal/protocol"
)

// DefaultInterval is the poll period used when the config leaves it
// unset.
const DefaultInterval = 30 * time.Second

// Requester is the bridge surface the poller shares with completion
// requests.
type Requester interface {
	Request(ctx context.Context, req protocol.Request) (*protocol.Response, error)
}

// Config configures the poller.
type Config struct {
	// Interval between polls, independent of buffer activity.
	Interval time.Duration

	// Roots provides the open project root paths. May be nil.
	Roots func() []string

	// Logger receives poller trace output.
	Logger *logging.Logger
}

// Poller runs the periodic status loop and retains the last decoded
// state for read-only inspection.
type Poller struct {
	mu sync.Mutex

	cfg Config
	req Requester
	log *logging.Logger

	last *protocol.Response
	stop chan struct{}
}

// New creates a stopped poller.
func New(req Requester, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Null
	}
	return &Poller{
		cfg: cfg,
		req: req,
		log: log.WithComponent("poller"),
	}
}

// Start begins polling. Idempotent while running.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	go p.loop(stop)
}

// Stop halts polling. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// loop polls once immediately, then on every tick until stopped.
func (p *Poller) loop(stop chan struct{}) {
	p.poll()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll issues the state query and the workspace-roots report.
func (p *Poller) poll() {
	ctx := context.Background()

	resp, err := p.req.Request(ctx, protocol.Request{State: &protocol.StateRequest{Dummy: true}})
	if err != nil {
		p.log.Debug("state poll failed: %v", err)
	} else if resp != nil {
		p.mu.Lock()
		p.last = resp
		p.mu.Unlock()
	}

	if p.cfg.Roots == nil {
		return
	}
	roots := p.cfg.Roots()
	if len(roots) == 0 {
		return
	}
	if _, err := p.req.Request(ctx, protocol.Request{Workspace: &protocol.WorkspaceRequest{RootPaths: roots}}); err != nil {
		p.log.Debug("workspace poll failed: %v", err)
	}
}

// LastState returns the most recent decoded state response, or nil when
// none has arrived yet.
func (p *Poller) LastState() *protocol.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// UserName returns the authenticated user from the last state poll.
func (p *Poller) UserName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return ""
	}
	return p.last.UserName
}
