package schedkit

import (
	"cmp"
	"slices"
)

// bucketQueue keeps one FIFO bucket per priority level.
//
// Levels are arbitrary integers kept sorted in descending order, so Pop
// always serves the highest non-empty level and, within it, the oldest
// entry. Empty buckets are dropped to keep the level list short.
type bucketQueue[T any] struct {
	levels  []int // descending
	buckets map[int]*fifoQueue[T]
	length  int
}

func newBucketQueue[T any]() *bucketQueue[T] {
	return &bucketQueue[T]{
		buckets: make(map[int]*fifoQueue[T]),
	}
}

func (q *bucketQueue[T]) Len() int { return q.length }

// Push appends v to the bucket for prio, creating it on first use.
func (q *bucketQueue[T]) Push(v T, prio int) {
	b, ok := q.buckets[prio]
	if !ok {
		b = newFifoQueue[T](initialFifoCapacity)
		q.buckets[prio] = b
		i, _ := slices.BinarySearchFunc(q.levels, prio, func(level, target int) int {
			return cmp.Compare(target, level) // descending
		})
		q.levels = slices.Insert(q.levels, i, prio)
	}
	b.Push(v)
	q.length++
}

// Pop removes the head of the highest non-empty bucket.
func (q *bucketQueue[T]) Pop() (T, bool) {
	var zero T
	if len(q.levels) == 0 {
		return zero, false
	}
	prio := q.levels[0]
	b := q.buckets[prio]
	v, ok := b.Pop()
	if !ok {
		return zero, false
	}
	if b.Len() == 0 {
		delete(q.buckets, prio)
		q.levels = q.levels[1:]
	}
	q.length--
	return v, true
}
