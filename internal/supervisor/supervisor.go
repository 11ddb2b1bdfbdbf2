package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/process"
)

// waitDelay bounds how long Wait blocks on I/O after the process is gone.
const waitDelay = 2 * time.Second

// Callbacks contains optional callback functions for supervisor events.
type Callbacks struct {
	// OnStateChange is called when the process state changes.
	OnStateChange func(segment int, oldState, newState State)

	// OnStart is called when a transcoder process starts.
	OnStart func(segment int, pid int)

	// OnExit is called when a transcoder process exits.
	OnExit func(segment int, exitCode int, uptime time.Duration)
}

// Config holds configuration for creating a new Supervisor.
type Config struct {
	Builder   process.Runner
	Logger    *slog.Logger
	Callbacks Callbacks

	// Timeout bounds one invocation; 0 disables it.
	Timeout time.Duration
}

// Result describes one completed invocation.
type Result struct {
	Segment int
	PID     int

	// Started is false if the process could not be built or spawned.
	Started bool

	ExitCode int
	Uptime   time.Duration

	// TimedOut is set when Config.Timeout killed the process.
	TimedOut bool

	// Stderr volume as seen by the line pipeline
	Lines   int64
	Bytes   int64
	Packets int64
}

// Supervisor runs transcoder invocations one at a time.
//
// Each Run builds the command for a window, streams stderr through a lossless
// line pipeline until EOF, then waits for the process. stdout is discarded.
type Supervisor struct {
	builder   process.Runner
	logger    *slog.Logger
	callbacks Callbacks
	timeout   time.Duration

	// State management
	state   State
	stateMu sync.RWMutex
}

// New creates a new Supervisor with the given configuration.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		builder:   cfg.Builder,
		logger:    logger,
		callbacks: cfg.Callbacks,
		timeout:   cfg.Timeout,
		state:     StateCreated,
	}
}

// Run transcodes window w and feeds every stderr line to parsers.
//
// The returned error is non-nil if the command could not be built or
// started, stderr could not be read, or the process exited unsuccessfully.
// The Result is filled in as far as the invocation got.
func (s *Supervisor) Run(ctx context.Context, w process.Window, parsers ...parser.LineParser) (res Result, err error) {
	res.Segment = w.Index
	s.setState(w.Index, StateStarting)

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd, err := s.builder.BuildCommand(runCtx, w)
	if err != nil {
		s.logger.Error("failed_to_build_command",
			"segment", w.Index,
			"error", err,
		)
		s.setState(w.Index, StateExited)
		return res, fmt.Errorf("build command: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.logger.Error("failed_to_create_stderr_pipe",
			"segment", w.Index,
			"error", err,
		)
		s.setState(w.Index, StateExited)
		return res, fmt.Errorf("stderr pipe: %w", err)
	}

	// Set process group so cancellation reaches any helpers that inherited stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	start := time.Now()

	if err := cmd.Start(); err != nil {
		s.logger.Error("failed_to_start_process",
			"segment", w.Index,
			"binary", s.builder.Name(),
			"error", err,
		)
		s.setState(w.Index, StateExited)
		return res, fmt.Errorf("start %s: %w", s.builder.Name(), err)
	}

	res.Started = true
	res.PID = cmd.Process.Pid
	s.setState(w.Index, StateRunning)

	s.logger.Debug("transcoder_started",
		"segment", w.Index,
		"pid", res.PID,
		"window", w.String(),
	)

	if s.callbacks.OnStart != nil {
		s.callbacks.OnStart(w.Index, res.PID)
	}

	// stderr must be fully read before Wait closes the pipe
	pipeline := parser.NewPipeline(w.Index, parsers...)
	readErr := pipeline.Run(stderr)
	if readErr != nil {
		// Keep the process from blocking on a full pipe.
		io.Copy(io.Discard, stderr)
	}

	waitErr := cmd.Wait()
	res.Uptime = time.Since(start)
	res.ExitCode = extractExitCode(waitErr)
	res.Lines, res.Bytes, res.Packets = pipeline.Stats()
	res.TimedOut = s.timeout > 0 && ctx.Err() == nil &&
		errors.Is(runCtx.Err(), context.DeadlineExceeded)

	if ctx.Err() != nil {
		s.setState(w.Index, StateStopped)
	} else {
		s.setState(w.Index, StateExited)
	}

	s.logger.Debug("transcoder_exited",
		"segment", w.Index,
		"pid", res.PID,
		"exit_code", res.ExitCode,
		"uptime", res.Uptime.String(),
		"lines", res.Lines,
		"packets", res.Packets,
		"timed_out", res.TimedOut,
	)

	if s.callbacks.OnExit != nil {
		s.callbacks.OnExit(w.Index, res.ExitCode, res.Uptime)
	}

	if waitErr != nil {
		waitErr = fmt.Errorf("wait: %w", waitErr)
	}
	return res, errors.Join(readErr, waitErr)
}

// State returns the current state of the supervisor.
func (s *Supervisor) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// setState updates the state and calls the callback if registered.
func (s *Supervisor) setState(segment int, newState State) {
	s.stateMu.Lock()
	oldState := s.state
	s.state = newState
	s.stateMu.Unlock()

	if s.callbacks.OnStateChange != nil && oldState != newState {
		s.callbacks.OnStateChange(segment, oldState, newState)
	}
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	// Unknown error, assume exit code 1
	return 1
}
