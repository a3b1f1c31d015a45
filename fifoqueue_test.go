package schedkit

import (
	"testing"
)

func TestFifoGrow_NoWrap(t *testing.T) {
	capacity := 4
	q := newFifoQueue[int](capacity)

	for i := 1; i <= capacity+1; i++ {
		q.Push(i)
	}

	if len(q.buf) <= capacity {
		t.Fatalf("grow() didn't increase capacity, got %d", len(q.buf))
	}
	if q.Len() != capacity+1 {
		t.Fatalf("after grow: expected size=%d, got %d", capacity+1, q.Len())
	}

	for expected := 1; expected <= capacity+1; expected++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop returned false, expected %d", expected)
		}
		if v != expected {
			t.Fatalf("FIFO order broken: expected %d, got %d", expected, v)
		}
	}
}

func TestFifoGrow_WithWrap(t *testing.T) {
	capacity := 4
	q := newFifoQueue[int](capacity)

	q.Push(1)
	q.Push(2)
	q.Push(3)

	// wrap-around: head=1
	v, _ := q.Pop()
	if v != 1 {
		t.Fatalf("expected to pop 1, got %d", v)
	}

	q.Push(4)
	q.Push(5)

	// [5,2,3,4] head=1 tail=1 size=4, next push grows
	q.Push(6)

	if len(q.buf) <= capacity {
		t.Fatalf("grow() didn't increase capacity")
	}

	expected := []int{2, 3, 4, 5, 6}
	for i, exp := range expected {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d returned false", i)
		}
		if v != exp {
			t.Fatalf("FIFO order broken at %d: expected %d, got %d", i, exp, v)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue")
	}
}

func TestFifoGrow_MultipleGrows(t *testing.T) {
	size := 50
	q := newFifoQueue[int](4)
	for i := 1; i <= size; i++ {
		q.Push(i)
	}

	if q.Len() != size {
		t.Fatalf("expected size %d, got %d", size, q.Len())
	}

	for i := 1; i <= size; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop returned false at %d", i)
		}
		if v != i {
			t.Fatalf("FIFO mismatch at %d: expected %d, got %d", i, i, v)
		}
	}
}

func TestFifoPeekAndClear(t *testing.T) {
	q := newFifoQueue[string](0)
	if _, ok := q.Peek(); ok {
		t.Fatal("peek on empty queue returned ok")
	}
	q.Push("a")
	q.Push("b")
	if v, _ := q.Peek(); v != "a" {
		t.Fatalf("peek = %q; want a", v)
	}
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("len after clear = %d", q.Len())
	}
	q.Push("c")
	if v, _ := q.Pop(); v != "c" {
		t.Fatalf("pop after clear = %q; want c", v)
	}
}

func TestBucketQueue_PriorityThenFIFO(t *testing.T) {
	q := newBucketQueue[string]()
	q.Push("low-1", -1)
	q.Push("mid-1", 0)
	q.Push("high-1", 5)
	q.Push("low-2", -1)
	q.Push("high-2", 5)
	q.Push("mid-2", 0)

	want := []string{"high-1", "high-2", "mid-1", "mid-2", "low-1", "low-2"}
	for i, w := range want {
		v, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if v != w {
			t.Fatalf("pop %d = %q; want %q", i, v, w)
		}
	}
	if q.Len() != 0 || len(q.levels) != 0 || len(q.buckets) != 0 {
		t.Fatalf("queue not empty: len=%d levels=%v", q.Len(), q.levels)
	}
}

func TestBucketQueue_LevelReuse(t *testing.T) {
	q := newBucketQueue[int]()
	q.Push(1, 3)
	if v, _ := q.Pop(); v != 1 {
		t.Fatalf("got %d; want 1", v)
	}
	q.Push(2, 1)
	q.Push(3, 3)
	if v, _ := q.Pop(); v != 3 {
		t.Fatalf("got %d; want 3", v)
	}
	if v, _ := q.Pop(); v != 2 {
		t.Fatalf("got %d; want 2", v)
	}
}
