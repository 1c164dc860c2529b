package sim

import (
	"errors"
	"fmt"
)

// Policy contract errors. These are returned to the policy layer; the pending
// decision stays registered so a different decision can be supplied.
var (
	ErrUnknownCrane       = errors.New("unknown crane")
	ErrNoPendingDecision  = errors.New("no pending decision of that kind")
	ErrInvalidChoice      = errors.New("choice is not a current candidate")
	ErrInvalidBatch       = errors.New("invalid loading batch")
	ErrBatchLimit         = errors.New("loading batch exceeds crane limits")
	ErrSimulationFinished = errors.New("simulation already finished")
)

// BatchLimitError reports which crane limit a loading batch violated.
type BatchLimitError struct {
	CraneID int
	Limit   string // "weight", "plate_count" or "pile_count"
	Value   float64
	Max     float64
}

func (e *BatchLimitError) Error() string {
	return fmt.Sprintf("crane %d: batch %s %.3f exceeds limit %.3f", e.CraneID, e.Limit, e.Value, e.Max)
}

// Unwrap lets callers match with errors.Is(err, ErrBatchLimit).
func (e *BatchLimitError) Unwrap() error { return ErrBatchLimit }

// InvariantError is the panic value for broken simulation invariants: an empty
// location popped, a leg cancelled twice, a decision resolved twice, and so on.
// These indicate a bug or a broker contract breach and abort the run.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Msg)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
