package schedkit

import (
	"context"
	"fmt"
	"sync"
)

// Operation is an asynchronous unit of work producing a T.
//
// The context passed to an operation is owned by the component running
// it. Components never cancel it on behalf of a caller: there is no
// caller-initiated cancellation of queued or running work.
type Operation[T any] func(ctx context.Context) (T, error)

// Future is the completion handle of a submitted task.
//
// A Future settles exactly once, with either a value or an error.
// Futures handed out by TaskPool.Terminate victims never settle, so
// callers that need a bound should use Await with a deadline.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// failedFuture returns a future already settled with err.
func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.settle(zero, err)
	return f
}

// settle stores the outcome. Later calls are ignored and report false.
func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.val = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done returns a channel closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx ends.
//
// When ctx ends first, Await returns ctx.Err(); the underlying work keeps
// running and the future may still settle later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result reports the outcome without blocking. ok is false while the
// future is still pending.
func (f *Future[T]) Result() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// PanicError is the error a future settles with when its task panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("schedkit: task panicked: %v", e.Value)
}

// runOperation invokes op and converts a panic into a *PanicError.
func runOperation[T any](ctx context.Context, op Operation[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r}
		}
	}()
	return op(ctx)
}
