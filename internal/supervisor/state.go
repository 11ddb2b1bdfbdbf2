// Package supervisor runs a single transcoder invocation to completion.
package supervisor

// State represents the lifecycle state of a transcoder process.
type State int

const (
	// StateCreated is the initial state before any window has been run.
	StateCreated State = iota

	// StateStarting indicates the process is being built and spawned.
	StateStarting

	// StateRunning indicates the process is running and stderr is streaming.
	StateRunning

	// StateExited indicates the process has exited and stderr is drained.
	StateExited

	// StateStopped indicates the invocation was cancelled by the caller.
	StateStopped
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// IsActive returns true while a process is being started or is running.
func (s State) IsActive() bool {
	return s == StateStarting || s == StateRunning
}

// IsTerminal returns true if the state is a terminal state (stopped).
func (s State) IsTerminal() bool {
	return s == StateStopped
}
