// Package pipeline sequences keyword derivation, paper aggregation and
// review synthesis as a staged state machine with progress reporting.
package pipeline

// Status is the orchestrator's run state.
type Status string

const (
	// StatusIdle is the state before any run has started.
	StatusIdle Status = "idle"

	// StatusProcessing is the state while a run is in flight.
	StatusProcessing Status = "processing"

	// StatusNoPapers is the terminal state when aggregation found no
	// papers; review synthesis is skipped.
	StatusNoPapers Status = "no_papers"

	// StatusCompleted is the terminal success state.
	StatusCompleted Status = "completed"

	// StatusError is the terminal failure state.
	StatusError Status = "error"
)

// IsTerminal reports whether the status ends the current run. A new
// Process call always starts a fresh run regardless of the previous
// terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusNoPapers, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// String returns the status as a string.
func (s Status) String() string {
	return string(s)
}
