// Package process provides abstractions for running the external transcoder.
package process

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Window is one fixed-duration slice of the input, transcoded by a single
// invocation.
type Window struct {
	// Index is the segment number, starting at 0.
	Index int

	// Start is the offset into the input (Index × Duration).
	Start time.Duration

	// Duration is the configured segment length.
	Duration time.Duration
}

// End returns the end offset of the window.
func (w Window) End() time.Duration {
	return w.Start + w.Duration
}

// String returns the window as "[start, end)" in seconds.
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", FormatSeconds(w.Start), FormatSeconds(w.End()))
}

// Runner creates executable commands for segment windows.
// This interface allows the orchestrator to be process-agnostic.
type Runner interface {
	// BuildCommand returns a ready-to-start command for the given window.
	// The command should NOT be started yet.
	BuildCommand(ctx context.Context, w Window) (*exec.Cmd, error)

	// Name returns a human-readable name for this process type.
	Name() string
}

// Result captures the outcome of one transcoder invocation.
type Result struct {
	Segment   int
	ExitCode  int
	StartTime time.Time
	EndTime   time.Time
	Error     error
}

// Elapsed returns how long the invocation ran.
func (r Result) Elapsed() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
