package harness

import (
	"context"
	"runtime/debug"
	"sync"
	"time"
)

// Settler is an explicit completion signal. Done is closed once the result
// has settled; Err then reports nil for success or the failure.
type Settler interface {
	Done() <-chan struct{}
	Err() error
}

// Deferred is a value that is resolved or rejected exactly once.
//
// Thread-safety: all methods are safe for concurrent use. The first call to
// Resolve or Reject wins; later calls report false.
type Deferred[V any] struct {
	once  sync.Once
	done  chan struct{}
	value V
	err   error
}

// NewDeferred creates an unsettled deferred value.
func NewDeferred[V any]() *Deferred[V] {
	return &Deferred[V]{done: make(chan struct{})}
}

// Resolved returns a deferred already settled with v.
func Resolved[V any](v V) *Deferred[V] {
	d := NewDeferred[V]()
	d.Resolve(v)
	return d
}

// Rejected returns a deferred already settled with err.
func Rejected[V any](err error) *Deferred[V] {
	d := NewDeferred[V]()
	d.Reject(err)
	return d
}

// After returns a deferred that resolves to v once delay has elapsed.
func After[V any](delay time.Duration, v V) *Deferred[V] {
	d := NewDeferred[V]()
	time.AfterFunc(delay, func() { d.Resolve(v) })
	return d
}

// Go runs fn on its own goroutine and settles with its result. A panic in
// fn rejects d with a *PanicError.
func Go[V any](fn func() (V, error)) *Deferred[V] {
	d := NewDeferred[V]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.Reject(&PanicError{Value: r, Stack: debug.Stack()})
			}
		}()
		v, err := fn()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(v)
	}()
	return d
}

// Resolve settles d with v. It reports whether this call settled d.
func (d *Deferred[V]) Resolve(v V) bool {
	settled := false
	d.once.Do(func() {
		d.value = v
		close(d.done)
		settled = true
	})
	return settled
}

// Reject settles d with err. A nil err is replaced by ErrRejected.
func (d *Deferred[V]) Reject(err error) bool {
	if err == nil {
		err = ErrRejected
	}
	settled := false
	d.once.Do(func() {
		d.err = err
		close(d.done)
		settled = true
	})
	return settled
}

// Done is closed when d settles.
func (d *Deferred[V]) Done() <-chan struct{} {
	return d.done
}

// Err returns the rejection error, or nil if d resolved or is unsettled.
func (d *Deferred[V]) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Await blocks until d settles or ctx is done.
func (d *Deferred[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Await blocks the case frame until d settles. A rejection fails the frame
// with the rejection error, the way an awaited promise rethrows.
func Await[V any](t *T, d *Deferred[V]) V {
	v, err := d.Await(t.Context())
	if err != nil {
		t.Fail(err)
	}
	return v
}
