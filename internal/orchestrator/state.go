package orchestrator

// RunState is the position of the segment loop.
type RunState int

const (
	// StateIdle is the state before the first window.
	StateIdle RunState = iota

	// StateInvoking means the transcoder is running and its stderr is streaming.
	StateInvoking

	// StateAggregating means stderr reached EOF and the Segment is being finalised.
	StateAggregating

	// StateChecking means the boundary with the previous Segment is being checked.
	StateChecking

	// StateDone means every window ran.
	StateDone

	// StateFailed means the loop was aborted by a transcoder failure or cancellation.
	StateFailed
)

// String returns the state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInvoking:
		return "invoking"
	case StateAggregating:
		return "aggregating"
	case StateChecking:
		return "checking"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once the loop has finished.
func (s RunState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
