package schedkit

import (
	"sync"
)

// Deduplicator collapses concurrent requests sharing a key into one
// in-flight operation.
//
// While an operation for a key is running, Dedupe hands every caller the
// same future, so they all observe the same value or the same error.
// Settled results are not cached: the key is forgotten as soon as the
// operation finishes, successfully or not.
type Deduplicator[T any] struct {
	opts Options

	mu      sync.Mutex
	pending map[string]*Future[T]
}

func NewDeduplicator[T any](opts DedupeOptions) *Deduplicator[T] {
	opts.FillDefaults()
	return &Deduplicator[T]{
		opts:    opts.Options,
		pending: make(map[string]*Future[T]),
	}
}

// Dedupe returns the in-flight future for key, or starts op and returns
// its future.
func (d *Deduplicator[T]) Dedupe(key string, op Operation[T]) *Future[T] {
	d.mu.Lock()
	if f, ok := d.pending[key]; ok {
		d.mu.Unlock()
		return f
	}
	if op == nil {
		d.mu.Unlock()
		return failedFuture[T](ErrNilOperation)
	}
	f := newFuture[T]()
	d.pending[key] = f
	d.mu.Unlock()

	d.opts.Metrics.IncSubmitted(CompDeduplicator)
	d.opts.Metrics.AddActive(CompDeduplicator, 1)
	go d.run(key, f, op)
	return f
}

func (d *Deduplicator[T]) run(key string, f *Future[T], op Operation[T]) {
	v, err := runOperation(d.opts.Ctx, op)

	// Forget the key before settling so a caller woken by the result
	// starts a fresh operation.
	d.mu.Lock()
	if d.pending[key] == f {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.opts.Metrics.AddActive(CompDeduplicator, -1)
	if err != nil {
		d.opts.Metrics.IncFailed(CompDeduplicator)
	} else {
		d.opts.Metrics.IncExecuted(CompDeduplicator)
	}
	f.settle(v, err)
}

// InFlight returns the number of keys with a running operation.
func (d *Deduplicator[T]) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
