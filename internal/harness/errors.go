package harness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/probe/internal/expect"
)

// ErrRejected is the failure of a Deferred rejected with a nil error.
var ErrRejected = errors.New("deferred rejected")

// HookError is a failure raised inside a lifecycle hook.
type HookError struct {
	Timing Timing
	Suite  []string
	Err    error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	where := "global"
	if len(e.Suite) > 0 {
		where = strings.Join(e.Suite, PathSeparator)
	}
	return fmt.Sprintf("%s hook failed (%s): %v", e.Timing, where, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a frame does not settle within its wait.
type TimeoutError struct {
	Frame string
	After time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s exceeded timeout of %s", e.Frame, e.After)
}

// PanicError wraps a value recovered from a panicking frame.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsTimeout returns true if err is, or wraps, a timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsHookFailure returns true if err is, or wraps, a hook failure.
func IsHookFailure(err error) bool {
	var he *HookError
	return errors.As(err, &he)
}

// classify maps a frame error onto a failure kind. Timeouts are reported as
// timeouts even when they happen inside a hook.
func classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case IsTimeout(err):
		return KindTimeout
	case IsHookFailure(err):
		return KindHook
	case expect.IsFailure(err):
		return KindAssertion
	default:
		return KindError
	}
}
