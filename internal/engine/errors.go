package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrStop is returned by an output to end a run early. Run and Resume
	// treat it as a clean finish.
	ErrStop = errors.New("engine: stop requested")
	// ErrNoInit is returned when a grid has no initial state at start.
	ErrNoInit = errors.New("engine: missing initial grid")
	// ErrNotStarted is returned by Resume before any Run.
	ErrNotStarted = errors.New("engine: simulation not started")
	// ErrStarted is returned when Run or Resume is called while a run is in progress.
	ErrStarted = errors.New("engine: simulation already running")
)

// RuleError reports a rule operation that panicked. The run is aborted.
type RuleError struct {
	Rule      string
	Grid      string
	Step      int
	Replicate int
	Value     any
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("engine: rule %q on grid %q failed at step %d (replicate %d): %v",
		e.Rule, e.Grid, e.Step, e.Replicate, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *RuleError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// protect runs fn and converts a panic into a *RuleError.
func protect(rule, grid string, step, rep int, fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &RuleError{Rule: rule, Grid: grid, Step: step, Replicate: rep, Value: v}
		}
	}()
	fn()
	return nil
}
