package schedkit

import (
	"context"
	"sync"
)

// queueEntry is the settle-on-completion wrapper around an operation.
type queueEntry struct {
	run func(ctx context.Context)
}

// PriorityQueue runs asynchronous operations under a global
// concurrency cap.
//
// Waiting operations drain strictly by priority (higher first) and, within
// one priority, in insertion order. Running operations are never
// preempted. There is no aging: a saturated high priority can starve
// lower ones indefinitely.
type PriorityQueue struct {
	opts QueueOptions

	mu      sync.Mutex
	buckets *bucketQueue[queueEntry]
	active  int
}

// NewPriorityQueue creates a queue running at most opts.Concurrency
// operations at once.
func NewPriorityQueue(opts QueueOptions) *PriorityQueue {
	opts.FillDefaults()
	return &PriorityQueue{
		opts:    opts,
		buckets: newBucketQueue[queueEntry](),
	}
}

// Add enqueues op at priority on q and returns a future for its result.
//
// Failures settle only this future; the queue keeps draining. The future
// has no cancellation: once added, op will run.
func Add[T any](q *PriorityQueue, op Operation[T], priority int) *Future[T] {
	if op == nil {
		return failedFuture[T](ErrNilOperation)
	}
	fut := newFuture[T]()
	comp := CompPriorityQueue
	q.push(queueEntry{run: func(ctx context.Context) {
		v, err := runOperation(ctx, op)
		if err != nil {
			q.opts.Metrics.IncFailed(comp)
		} else {
			q.opts.Metrics.IncExecuted(comp)
		}
		fut.settle(v, err)
	}}, priority)
	return fut
}

func (q *PriorityQueue) push(e queueEntry, priority int) {
	q.mu.Lock()
	q.buckets.Push(e, priority)
	q.mu.Unlock()

	q.opts.Metrics.IncSubmitted(CompPriorityQueue)
	q.opts.Metrics.AddQueued(CompPriorityQueue, 1)
	q.drain()
}

// drain starts waiting entries while slots are free. Slots are claimed
// under the lock, so concurrent drains never overshoot the cap.
func (q *PriorityQueue) drain() {
	var ready []queueEntry

	q.mu.Lock()
	for q.active < q.opts.Concurrency {
		e, ok := q.buckets.Pop()
		if !ok {
			break
		}
		q.active++
		ready = append(ready, e)
	}
	q.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	q.opts.Metrics.AddQueued(CompPriorityQueue, -int64(len(ready)))
	for _, e := range ready {
		go q.run(e)
	}
}

func (q *PriorityQueue) run(e queueEntry) {
	q.opts.Metrics.AddActive(CompPriorityQueue, 1)
	e.run(q.opts.Ctx)
	q.opts.Metrics.AddActive(CompPriorityQueue, -1)

	q.mu.Lock()
	q.active--
	q.mu.Unlock()
	q.drain()
}

// Active returns the number of running operations.
func (q *PriorityQueue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Pending returns the number of operations waiting for a slot.
func (q *PriorityQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buckets.Len()
}

func (q *PriorityQueue) Concurrency() int { return q.opts.Concurrency }
