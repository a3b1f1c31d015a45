// fifo_queue.go
package schedkit

const (
	initialFifoCapacity = 16
)

// fifoQueue is a growable first-in–first-out ring buffer.
//
// It backs every queue in the package: the task pool overflow queue,
// each priority bucket, the idle queue and the frame tiers.
// No priorities, no reordering. Not safe for concurrent use; callers
// hold their own lock.
type fifoQueue[T any] struct {
	buf        []T // circular buffer
	head, tail int // read/write indices
	size       int // number of items currently buffered
}

// newFifoQueue creates a FIFO queue with the given initial capacity.
// The buffer doubles whenever it fills up.
func newFifoQueue[T any](capacity int) *fifoQueue[T] {
	if capacity <= 0 {
		capacity = initialFifoCapacity
	}
	return &fifoQueue[T]{
		buf: make([]T, capacity),
	}
}

// Len returns the number of items currently waiting in the queue.
func (q *fifoQueue[T]) Len() int { return q.size }

// Push inserts v at the tail of the queue.
func (q *fifoQueue[T]) Push(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[q.tail] = v
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++
}

// Pop removes and returns the oldest item.
//
// If the queue is empty, returns the zero value and false.
func (q *fifoQueue[T]) Pop() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.size--
	return v, true
}

// Peek returns the oldest item without removing it.
func (q *fifoQueue[T]) Peek() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.buf[q.head], true
}

// Clear drops every buffered item and keeps the allocated buffer.
func (q *fifoQueue[T]) Clear() {
	clear(q.buf)
	q.head, q.tail, q.size = 0, 0, 0
}

// grow doubles the buffer and unwraps the ring so head starts at 0.
func (q *fifoQueue[T]) grow() {
	capacity := len(q.buf) * 2
	if capacity == 0 {
		capacity = initialFifoCapacity
	}
	buf := make([]T, capacity)
	if q.size > 0 {
		if q.head < q.tail {
			copy(buf, q.buf[q.head:q.tail])
		} else {
			n := copy(buf, q.buf[q.head:])
			copy(buf[n:], q.buf[:q.tail])
		}
	}
	q.buf = buf
	q.head = 0
	q.tail = q.size
}
