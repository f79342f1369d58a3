package pool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	// ErrDetached is returned by Get on a future that was detached or whose
	// result was already taken.
	ErrDetached = errors.New("future is not attached")
	// ErrPoolClosed resolves futures of jobs that never started because the
	// pool shut down.
	ErrPoolClosed = errors.New("pool closed")
)

// PanicError carries a panic recovered from a job.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("job panicked: %v", e.Value) }

// Call runs fn and turns a panic into a *PanicError.
func Call[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Future is the handle to a job's result. It starts attached; the owner is
// expected to either Get the result, Release it (usually deferred, which
// waits for the job like a scope-exit join), or Detach it to abandon the
// result without waiting.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error

	mu       sync.Mutex
	attached bool
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{}), attached: true}
}

// Resolved returns an attached future that is already fulfilled.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Valid reports whether the future is still attached.
func (f *Future[T]) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attached
}

// Done is closed once the job has finished.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the job finishes and returns its result. It consumes the
// future: afterwards Valid is false and further calls return ErrDetached.
func (f *Future[T]) Get() (T, error) {
	if !f.take() {
		var zero T
		return zero, ErrDetached
	}
	<-f.done
	return f.val, f.err
}

// Detach abandons the result. Release and Get no longer wait.
func (f *Future[T]) Detach() { f.take() }

// Release waits for an attached job and returns its error. It is a no-op
// on a detached or consumed future.
func (f *Future[T]) Release() error {
	if !f.take() {
		return nil
	}
	<-f.done
	return f.err
}

func (f *Future[T]) take() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	was := f.attached
	f.attached = false
	return was
}
