package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTranscoderFailed is wrapped by every TranscoderError.
	ErrTranscoderFailed = errors.New("transcoder failed")

	// ErrNoOutput means the transcoder exited cleanly without writing anything
	// to stderr.
	ErrNoOutput = errors.New("transcoder produced no output")

	// ErrTimeout means the per-invocation timeout killed the transcoder.
	ErrTimeout = errors.New("transcoder timed out")
)

// TranscoderError reports an invocation that aborts the run: a spawn
// failure, a non-zero exit, a timeout or empty stderr.
type TranscoderError struct {
	Segment  int
	ExitCode int

	// Reason is one of the metrics.Failure* labels.
	Reason string

	// Tail holds the transcoder's last diagnostic (non-packet) lines.
	Tail []string

	// ErrorCounts tallies well-known failure messages in the tail buffer.
	ErrorCounts map[string]int

	Err error
}

func (e *TranscoderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "segment %d: transcoder failed (%s", e.Segment, e.Reason)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, ", exit code %d%s", e.ExitCode, exitCodeLabel(e.ExitCode))
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *TranscoderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTranscoderFailed}
	}
	return []error{ErrTranscoderFailed, e.Err}
}

// TailLines returns the diagnostic tail for display.
func (e *TranscoderError) TailLines() []string {
	return e.Tail
}

// ErrorPatternCounts returns how often each known failure message appeared.
func (e *TranscoderError) ErrorPatternCounts() map[string]int {
	return e.ErrorCounts
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 1:
		return " (error)"
	case 137:
		return " (SIGKILL)"
	case 143:
		return " (SIGTERM)"
	default:
		return ""
	}
}
