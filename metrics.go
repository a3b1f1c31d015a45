package schedkit

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// cachePad is used to prevent false sharing between hot fields.
type cachePad = cpu.CacheLinePad

// Component identifies which scheduler reported a metric.
type Component uint8

const (
	CompTaskPool Component = iota
	CompPriorityQueue
	CompDeduplicator
	CompIdleScheduler
	CompFrameScheduler
	CompCoalescer
	CompBatcher

	componentCount
)

func (c Component) String() string {
	switch c {
	case CompTaskPool:
		return "task_pool"
	case CompPriorityQueue:
		return "priority_queue"
	case CompDeduplicator:
		return "deduplicator"
	case CompIdleScheduler:
		return "idle_scheduler"
	case CompFrameScheduler:
		return "frame_scheduler"
	case CompCoalescer:
		return "coalescer"
	case CompBatcher:
		return "batcher"
	default:
		return "unknown"
	}
}

// MetricsPolicy defines hooks used by the schedulers to report
// queueing and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {
	// IncSubmitted counts work accepted by a component.
	IncSubmitted(c Component)

	// IncExecuted counts work that completed without error.
	IncExecuted(c Component)

	// IncFailed counts work that completed with an error or panic.
	IncFailed(c Component)

	// AddQueued moves the number of waiting entries by delta.
	AddQueued(c Component, delta int64)

	// AddActive moves the number of running entries by delta.
	AddActive(c Component, delta int64)
}

type componentCounters struct {
	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	queued    atomic.Int64
	active    atomic.Int64
	maxActive atomic.Int64
	_         cachePad
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	c [componentCount]componentCounters
}

func (m *AtomicMetrics) at(c Component) *componentCounters {
	if c >= componentCount {
		c = CompTaskPool
	}
	return &m.c[c]
}

func (m *AtomicMetrics) IncSubmitted(c Component) { m.at(c).submitted.Add(1) }
func (m *AtomicMetrics) IncExecuted(c Component)  { m.at(c).executed.Add(1) }
func (m *AtomicMetrics) IncFailed(c Component)    { m.at(c).failed.Add(1) }

func (m *AtomicMetrics) AddQueued(c Component, delta int64) { m.at(c).queued.Add(delta) }

// AddActive also keeps the high-water mark of running entries.
func (m *AtomicMetrics) AddActive(c Component, delta int64) {
	cc := m.at(c)
	n := cc.active.Add(delta)
	for {
		peak := cc.maxActive.Load()
		if n <= peak || cc.maxActive.CompareAndSwap(peak, n) {
			return
		}
	}
}

// Submitted returns the total amount of work accepted by c.
func (m *AtomicMetrics) Submitted(c Component) uint64 { return m.at(c).submitted.Load() }

// Executed returns the number of successful completions in c.
func (m *AtomicMetrics) Executed(c Component) uint64 { return m.at(c).executed.Load() }

// Failed returns the number of failed completions in c.
func (m *AtomicMetrics) Failed(c Component) uint64 { return m.at(c).failed.Load() }

// Queued returns the current number of waiting entries in c.
func (m *AtomicMetrics) Queued(c Component) int64 { return m.at(c).queued.Load() }

// Active returns the current number of running entries in c.
func (m *AtomicMetrics) Active(c Component) int64 { return m.at(c).active.Load() }

// MaxActive returns the highest number of simultaneously running
// entries observed in c.
func (m *AtomicMetrics) MaxActive(c Component) int64 { return m.at(c).maxActive.Load() }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted(Component)     {}
func (m *NoopMetrics) IncExecuted(Component)      {}
func (m *NoopMetrics) IncFailed(Component)        {}
func (m *NoopMetrics) AddQueued(Component, int64) {}
func (m *NoopMetrics) AddActive(Component, int64) {}
