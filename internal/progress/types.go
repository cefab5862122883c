// Package progress shows what a command is doing while it waits: loading
// recipes, computing recommendations and running recipe validators, which may
// query remote resources. On a terminal each step gets a spinner; otherwise
// plain lines are printed.
package progress

import "errors"

// StepStatus is the state of one step of a command.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepCompleted
	StepFailed
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepCompleted:
		return "completed"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepInfo identifies a step for display.
type StepInfo struct {
	// Name is shown after the counter, e.g. "running recipe validators".
	Name string
	// Number is 1-based.
	Number int
	Total  int
}

// Validate checks that the step can be displayed.
func (s StepInfo) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("step name cannot be empty")
	case s.Number <= 0:
		return errors.New("step number must be > 0")
	case s.Total <= 0:
		return errors.New("total steps must be > 0")
	case s.Number > s.Total:
		return errors.New("step number cannot exceed total steps")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY is false when output is piped or redirected.
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	// Width is 0 when unknown.
	Width int
}

// Symbols is the character set for status marks.
type Symbols struct {
	Checkmark string
	Failure   string
	// SpinnerSet indexes spinner.CharSets.
	SpinnerSet int
}
