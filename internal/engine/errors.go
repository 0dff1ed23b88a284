package engine

import (
	"errors"
	"fmt"

	"github.com/cindergrid/automaton/internal/aaa"
)

// CycleErrorCode categorizes recoverable execution failures. Both
// codes move the instance to DeferredWaiting and increment its
// consecutive-failure counter; neither deletes any state.
type CycleErrorCode string

const (
	// ErrCodeDispatchFailed: an adapter call (asset or DEX operation)
	// failed mid-pipeline under an AbortCycle policy.
	ErrCodeDispatchFailed CycleErrorCode = "DISPATCH_FAILED"

	// ErrCodeInsolvent: the sovereign account could not cover a
	// condition-read or step fee. The cycle aborts early with no
	// partial charging of the failed fee.
	ErrCodeInsolvent CycleErrorCode = "INSOLVENT"
)

// CycleError is the recoverable per-invocation failure record.
type CycleError struct {
	Code CycleErrorCode
	ID   aaa.ID
	// Step is the pipeline index the cycle stopped at.
	Step    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: instance %d step %d: %s: %v", e.Code, e.ID, e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: instance %d step %d: %s", e.Code, e.ID, e.Step, e.Message)
}

// Unwrap exposes the underlying adapter error.
func (e *CycleError) Unwrap() error {
	return e.Err
}

// IsInsolvent reports whether err is (or wraps) a solvency failure.
func IsInsolvent(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce) && ce.Code == ErrCodeInsolvent
}

// SweepErrorCode categorizes permissionless-sweep rejections.
type SweepErrorCode string

const (
	// ErrCodeNotSweepable: the instance is solvent and under the
	// failure cap, so the sweep call is rejected with no state change.
	ErrCodeNotSweepable SweepErrorCode = "NOT_SWEEPABLE"
)

// SweepError is returned when permissionless_sweep is called against
// an instance that is not reclamation-eligible.
type SweepError struct {
	Code    SweepErrorCode
	ID      aaa.ID
	Message string
}

// Error implements the error interface.
func (e *SweepError) Error() string {
	return fmt.Sprintf("%s: instance %d: %s", e.Code, e.ID, e.Message)
}

// IsNotSweepable reports whether err is a rejected sweep.
func IsNotSweepable(err error) bool {
	var se *SweepError
	return errors.As(err, &se) && se.Code == ErrCodeNotSweepable
}
