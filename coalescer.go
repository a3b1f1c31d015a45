package schedkit

import (
	"sync"
	"time"
)

type coalesceBucket[T any] struct {
	items   []T
	onFlush func(items []T)
	timer   *time.Timer
	gen     uint64
}

// Coalescer batches rapid repeated events under a key into one delayed
// callback carrying every payload.
//
// It debounces: each new payload restarts the key's timer, so a steady
// stream defers the flush until a quiet period of the delay occurs.
type Coalescer[T any] struct {
	opts CoalescerOptions

	mu      sync.Mutex
	buckets map[string]*coalesceBucket[T]
}

func NewCoalescer[T any](opts CoalescerOptions) *Coalescer[T] {
	opts.FillDefaults()
	return &Coalescer[T]{
		opts:    opts,
		buckets: make(map[string]*coalesceBucket[T]),
	}
}

// Coalesce appends payload to the bucket for key and restarts its timer.
//
// When the timer fires, onFlush receives all payloads since the last
// flush in arrival order. The onFlush of the latest call wins. A
// non-positive delay uses CoalescerOptions.DefaultDelay.
func (c *Coalescer[T]) Coalesce(key string, payload T, onFlush func(items []T), delay time.Duration) {
	if delay <= 0 {
		delay = c.opts.DefaultDelay
	}

	c.mu.Lock()
	b, ok := c.buckets[key]
	if ok {
		b.timer.Stop()
	} else {
		b = &coalesceBucket[T]{}
		c.buckets[key] = b
	}
	b.items = append(b.items, payload)
	b.onFlush = onFlush
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(delay, func() { c.fire(key, b, gen) })
	c.mu.Unlock()

	c.opts.Metrics.IncSubmitted(CompCoalescer)
	c.opts.Metrics.AddQueued(CompCoalescer, 1)
}

// fire flushes b unless a newer payload re-armed it after this timer
// was started.
func (c *Coalescer[T]) fire(key string, b *coalesceBucket[T], gen uint64) {
	c.mu.Lock()
	if c.buckets[key] != b || b.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.buckets, key)
	c.mu.Unlock()

	c.deliver(b)
}

func (c *Coalescer[T]) deliver(b *coalesceBucket[T]) {
	c.opts.Metrics.AddQueued(CompCoalescer, -int64(len(b.items)))
	if b.onFlush == nil {
		return
	}
	c.opts.runCallback(CompCoalescer, func() { b.onFlush(b.items) })
}

// Flush delivers every pending bucket immediately, without waiting for
// the quiet period.
func (c *Coalescer[T]) Flush() {
	c.mu.Lock()
	buckets := make([]*coalesceBucket[T], 0, len(c.buckets))
	for key, b := range c.buckets {
		b.timer.Stop()
		delete(c.buckets, key)
		buckets = append(buckets, b)
	}
	c.mu.Unlock()

	for _, b := range buckets {
		c.deliver(b)
	}
}

// Pending returns the number of keys waiting to flush.
func (c *Coalescer[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}
