package schedkit

import (
	"context"
	"sync"
	"time"
)

// BatchLoader resolves many keys in one call. Keys missing from the
// returned map fail with ErrResultNotFound.
type BatchLoader[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type batchRequest[K comparable, V any] struct {
	key K
	fut *Future[V]
}

// Batcher collects keys requested within a short window and resolves
// them with a single loader call.
//
// The first key of a window arms a timer; later keys join the same
// batch. Keys are passed to the loader in request order, duplicates
// included.
type Batcher[K comparable, V any] struct {
	opts   BatcherOptions
	loader BatchLoader[K, V]

	mu      sync.Mutex
	batch   []batchRequest[K, V]
	pending bool
}

func NewBatcher[K comparable, V any](loader BatchLoader[K, V], opts BatcherOptions) *Batcher[K, V] {
	opts.FillDefaults()
	return &Batcher[K, V]{
		opts:   opts,
		loader: loader,
	}
}

// Load requests key and returns a future for its value.
func (b *Batcher[K, V]) Load(key K) *Future[V] {
	if b.loader == nil {
		return failedFuture[V](ErrNilOperation)
	}
	fut := newFuture[V]()

	b.mu.Lock()
	b.batch = append(b.batch, batchRequest[K, V]{key: key, fut: fut})
	arm := !b.pending
	b.pending = true
	b.mu.Unlock()

	b.opts.Metrics.IncSubmitted(CompBatcher)
	b.opts.Metrics.AddQueued(CompBatcher, 1)
	if arm {
		time.AfterFunc(b.opts.Delay, b.flush)
	}
	return fut
}

func (b *Batcher[K, V]) flush() {
	b.mu.Lock()
	batch := b.batch
	b.batch = nil
	b.pending = false
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	b.opts.Metrics.AddQueued(CompBatcher, -int64(len(batch)))

	keys := make([]K, len(batch))
	for i, r := range batch {
		keys[i] = r.key
	}

	b.opts.Metrics.AddActive(CompBatcher, 1)
	results, err := runOperation(b.opts.Ctx, func(ctx context.Context) (map[K]V, error) {
		return b.loader(ctx, keys)
	})
	b.opts.Metrics.AddActive(CompBatcher, -1)

	for _, r := range batch {
		var zero V
		if err != nil {
			b.opts.Metrics.IncFailed(CompBatcher)
			r.fut.settle(zero, err)
			continue
		}
		v, ok := results[r.key]
		if !ok {
			b.opts.Metrics.IncFailed(CompBatcher)
			r.fut.settle(zero, ErrResultNotFound)
			continue
		}
		b.opts.Metrics.IncExecuted(CompBatcher)
		r.fut.settle(v, nil)
	}
}
