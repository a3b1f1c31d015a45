package schedkit

import (
	"sync"
	"time"
)

type idleEntry struct {
	fn      func()
	timeout time.Duration
}

// IdleScheduler defers low-urgency callbacks to host idle periods.
//
// Callbacks run one at a time in FIFO order. Each callback gets its own
// idle request bounded by its timeout, so it still runs under continuous
// load. When the queue empties scheduling stops until the next Schedule.
type IdleScheduler struct {
	opts IdleOptions

	mu        sync.Mutex
	queue     *fifoQueue[idleEntry]
	scheduled bool
}

func NewIdleScheduler(opts IdleOptions) *IdleScheduler {
	opts.FillDefaults()
	return &IdleScheduler{
		opts:  opts,
		queue: newFifoQueue[idleEntry](initialFifoCapacity),
	}
}

// Schedule queues fn to run within timeout. A non-positive timeout uses
// IdleOptions.DefaultTimeout.
func (s *IdleScheduler) Schedule(fn func(), timeout time.Duration) {
	if fn == nil {
		return
	}
	if timeout <= 0 {
		timeout = s.opts.DefaultTimeout
	}

	s.mu.Lock()
	s.queue.Push(idleEntry{fn: fn, timeout: timeout})
	start := !s.scheduled
	s.scheduled = true
	s.mu.Unlock()

	s.opts.Metrics.IncSubmitted(CompIdleScheduler)
	s.opts.Metrics.AddQueued(CompIdleScheduler, 1)
	if start {
		s.next()
	}
}

// next requests an idle period for the oldest callback.
func (s *IdleScheduler) next() {
	s.mu.Lock()
	e, ok := s.queue.Pop()
	if !ok {
		s.scheduled = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.opts.Metrics.AddQueued(CompIdleScheduler, -1)
	s.opts.Source.RequestIdle(e.timeout, func() {
		s.opts.Metrics.AddActive(CompIdleScheduler, 1)
		s.opts.runCallback(CompIdleScheduler, e.fn)
		s.opts.Metrics.AddActive(CompIdleScheduler, -1)
		s.next()
	})
}

// Pending returns the number of callbacks not yet handed to the idle
// facility.
func (s *IdleScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}
