package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEmptyCandidateSet means the screen produced zero usable rows
var ErrEmptyCandidateSet = errors.New("empty candidate set")

// ErrorKind classifies why a run did not complete
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindEmptyCandidates ErrorKind = "empty_candidates"
	KindBusy            ErrorKind = "busy"
	KindPersistence     ErrorKind = "persistence"
)

// RunError is returned by Engine.Run for every aborted or failed run
type RunError struct {
	Kind       ErrorKind
	StrategyID uuid.UUID
	State      RunState // state reached when the run stopped
	Err        error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s %s: %v", e.StrategyID, e.Kind, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or "" when err is not a RunError
func KindOf(err error) ErrorKind {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind
	}
	return ""
}
