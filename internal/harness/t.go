package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/roach88/probe/internal/expect"
)

// T is the handle passed to case and hook bodies.
//
// Expect, Fail and Check unwind the calling goroutine on failure, so they
// must be called from the goroutine running the body, as with
// testing.T.FailNow.
type T struct {
	ctx     context.Context
	name    string
	console *Console

	mu  sync.Mutex
	err error
}

// unwind is the panic value used to leave a frame after a recorded failure.
type unwind struct{}

func newT(ctx context.Context, name string, console *Console) *T {
	return &T{ctx: ctx, name: name, console: console}
}

// Context is cancelled when the frame times out or the run is cancelled.
func (t *T) Context() context.Context {
	return t.ctx
}

// Name returns the full name of the running case, or a description of the
// running hook.
func (t *T) Name() string {
	return t.name
}

// Expect wraps v; a failed matcher fails and unwinds the frame.
func (t *T) Expect(v any) *expect.Expectation {
	return expect.With(t, v)
}

// Fail records err as the frame failure and unwinds the frame. Only the
// first failure is kept. Implements expect.Reporter.
func (t *T) Fail(err error) {
	if err == nil {
		err = errors.New("failed")
	}
	t.mu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.mu.Unlock()
	panic(unwind{})
}

// Failf fails the frame with a formatted message.
func (t *T) Failf(format string, args ...any) {
	t.Fail(fmt.Errorf(format, args...))
}

// Check fails the frame with err when err is non-nil.
func (t *T) Check(err error) {
	if err != nil {
		t.Fail(err)
	}
}

// Log appends a line to the run console.
func (t *T) Log(args ...any) {
	t.console.Println(args...)
}

// Logf appends a formatted line to the run console.
func (t *T) Logf(format string, args ...any) {
	t.console.Printf(format, args...)
}

func (t *T) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// exec runs fn, waits for any returned Settler, and converts panics and
// rejections into the frame error.
func (t *T) exec(fn AsyncFunc) (err error) {
	defer func() {
		r := recover()
		switch {
		case r == nil:
		case r == (unwind{}):
			err = t.failure()
		default:
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	s := fn(t)
	if s == nil {
		return nil
	}

	select {
	case <-s.Done():
		return s.Err()
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}
