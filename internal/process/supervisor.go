// Package process owns the engine subprocess lifecycle: spawning,
// stdin writes, stdout framing, exit monitoring, and the bounded
// restart policy.
package process

import (
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/dshills/tabnine/internal/logging"
	"github.com/dshills/tabnine/internal/protocol"
)

// DefaultMaxRestarts is the restart ceiling used when the config leaves
// it unset.
const DefaultMaxRestarts = 10

// Config configures the supervisor.
type Config struct {
	// BinaryRoot is the versioned install tree the executable is
	// resolved from when BinaryPath is empty.
	BinaryRoot string

	// BinaryPath overrides resolution with an explicit executable path.
	BinaryPath string

	// ClientID is passed to the engine via --client.
	ClientID string

	// LogFilePath, when set, is passed via --log-file-path along with
	// --log-level.
	LogFilePath string

	// LogLevel is the engine's own log level flag. Only used when
	// LogFilePath is set. Defaults to "Warn".
	LogLevel string

	// MaxRestarts is the ceiling on consecutive abnormal-exit restarts
	// before the supervisor disables itself.
	MaxRestarts int

	// Logger receives supervisor trace output.
	Logger *logging.Logger
}

// FrameHandler receives complete frames read from the engine's stdout.
type FrameHandler func(frame []byte)

// Supervisor manages exactly one live engine process at a time.
// Replacing the process always terminates the prior one first, and the
// handle is cleared before teardown so a stale exit event can never
// trigger a spurious restart.
type Supervisor struct {
	mu sync.Mutex

	cfg Config
	log *logging.Logger

	onFrame FrameHandler

	cmd   *exec.Cmd
	stdin io.WriteCloser

	restartCount int
	disabled     bool
}

// New creates a supervisor. The process is not started until Start or
// the first Send.
func New(cfg Config) *Supervisor {
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = DefaultMaxRestarts
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "Warn"
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Null
	}
	return &Supervisor{
		cfg: cfg,
		log: log.WithComponent("process"),
	}
}

// OnFrame registers the handler for complete stdout frames. Must be set
// before the process is started; frames arriving with no handler are
// dropped.
func (s *Supervisor) OnFrame(fn FrameHandler) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

// Start terminates any existing process and spawns a fresh one.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return ErrDisabled
	}
	return s.startLocked()
}

// startLocked spawns the engine (must hold mu).
func (s *Supervisor) startLocked() error {
	s.stopLocked()

	path := s.cfg.BinaryPath
	if path == "" {
		resolved, err := ResolveBinary(s.cfg.BinaryRoot)
		if err != nil {
			return err
		}
		path = resolved
	}

	args := []string{"--client", s.cfg.ClientID}
	if s.cfg.LogFilePath != "" {
		args = append(args, "--log-file-path", s.cfg.LogFilePath, "--log-level", s.cfg.LogLevel)
	}

	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("start engine: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin

	go s.readLoop(stdout)
	go s.waitExit(cmd)

	s.log.Debug("started engine %s (pid %d)", path, cmd.Process.Pid)
	return nil
}

// Stop tears down the current process. Idempotent; safe to call when no
// process exists.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// stopLocked kills the current process, clearing the handle first so
// the pending exit event is recognized as superseded (must hold mu).
func (s *Supervisor) stopLocked() {
	cmd := s.cmd
	stdin := s.stdin
	s.cmd = nil
	s.stdin = nil

	if stdin != nil {
		stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// Send writes a serialized request to the engine's stdin, starting the
// process first if absent.
func (s *Supervisor) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return ErrDisabled
	}
	if s.cmd == nil {
		if err := s.startLocked(); err != nil {
			return err
		}
	}

	if _, err := s.stdin.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// Restart clears the disabled state and restart counter and spawns a
// fresh process. This is the explicit user-driven restart.
func (s *Supervisor) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disabled = false
	s.restartCount = 0
	return s.startLocked()
}

// ResetRestartCount zeroes the counter. Called whenever a request
// completes successfully, so only uninterrupted crash streaks count
// toward the ceiling.
func (s *Supervisor) ResetRestartCount() {
	s.mu.Lock()
	s.restartCount = 0
	s.mu.Unlock()
}

// RestartCount returns the consecutive abnormal-exit count.
func (s *Supervisor) RestartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartCount
}

// Running reports whether a live process handle exists.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Disabled reports whether the restart ceiling was exceeded.
func (s *Supervisor) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// readLoop reads stdout chunks and feeds them through a framer. Each
// spawned process gets its own framer, so a replacement process never
// inherits a partial document.
func (s *Supervisor) readLoop(r io.ReadCloser) {
	defer r.Close()

	var fr protocol.Framer
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if frame, ok := fr.Feed(buf[:n]); ok {
				s.mu.Lock()
				handler := s.onFrame
				s.mu.Unlock()
				if handler != nil {
					handler(frame)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// waitExit blocks on process exit and applies the restart policy.
func (s *Supervisor) waitExit(cmd *exec.Cmd) {
	err := cmd.Wait()

	s.mu.Lock()
	if s.cmd != cmd {
		// Superseded by an explicit Stop or Start; nothing to do.
		s.mu.Unlock()
		return
	}
	s.cmd = nil
	s.stdin = nil

	if s.restartCount >= s.cfg.MaxRestarts {
		s.disabled = true
		s.mu.Unlock()
		s.log.Warn("engine exited %d consecutive times; auto-restart disabled until an explicit restart", s.cfg.MaxRestarts+1)
		return
	}

	s.restartCount++
	attempt := s.restartCount
	startErr := s.startLocked()
	s.mu.Unlock()

	if startErr != nil {
		s.log.Error("engine restart attempt %d failed: %v", attempt, startErr)
		return
	}
	s.log.Info("engine exited (%v); restarted, attempt %d", err, attempt)
}
