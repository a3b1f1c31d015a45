package schedkit

import (
	"context"
	"runtime"
	"time"
)

const (
	DefaultQueueConcurrency = 4
	DefaultIdleTimeout      = 5 * time.Second
	DefaultIdleDelay        = time.Millisecond
	DefaultIdlePoll         = 5 * time.Millisecond
	DefaultFrameInterval    = 16 * time.Millisecond
	DefaultCoalesceDelay    = 100 * time.Millisecond
	DefaultBatchDelay       = 50 * time.Millisecond
	DefaultTargetFPS        = 60
	DefaultLimitWindow      = time.Minute
	DefaultLimitRequests    = 100
)

// Options carries the ambient settings shared by every component.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// Ctx carries the zlog logger and is the parent context handed to
	// operations. It is never canceled by the component itself.
	Ctx context.Context

	// Metrics receives queueing and execution activity.
	Metrics MetricsPolicy

	// OnTaskError is called for task failures that have no future to
	// settle, such as a panicking idle or frame callback.
	OnTaskError func(error)

	// OnInternalError is called for failures of the component itself,
	// such as a worker that could not be respawned.
	OnInternalError func(error)
}

func (o *Options) FillDefaults() {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
}

// PoolOptions configure a TaskPool.
type PoolOptions struct {
	Options

	// Workers is the number of parallel workers. Defaults to GOMAXPROCS.
	Workers int

	// PinWorkers locks each worker goroutine to an OS thread pinned to
	// one CPU. Only honoured on Linux.
	PinWorkers bool

	// Respawn controls how crashed workers are replaced.
	Respawn RespawnPolicy
}

func (o *PoolOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	o.Respawn.fillDefaults()
}

// QueueOptions configure a PriorityQueue.
type QueueOptions struct {
	Options

	// Concurrency caps the number of operations running at once.
	Concurrency int
}

func (o *QueueOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultQueueConcurrency
	}
}

// DedupeOptions configure a Deduplicator.
type DedupeOptions struct {
	Options
}

// IdleOptions configure an IdleScheduler.
type IdleOptions struct {
	Options

	// Source is the host idle facility. Defaults to DeferredIdle.
	Source IdleSource

	// DefaultTimeout bounds how long a callback may wait for an idle
	// period when Schedule is given no timeout.
	DefaultTimeout time.Duration
}

func (o *IdleOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.Source == nil {
		o.Source = DeferredIdle{}
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultIdleTimeout
	}
}

// FrameOptions configure a FrameScheduler.
type FrameOptions struct {
	Options

	// Source delivers animation-frame signals. Defaults to TimerFrames.
	Source FrameSource
}

func (o *FrameOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.Source == nil {
		o.Source = TimerFrames{}
	}
}

// CoalescerOptions configure a Coalescer.
type CoalescerOptions struct {
	Options

	// DefaultDelay is the quiet period used when Coalesce gets no delay.
	DefaultDelay time.Duration
}

func (o *CoalescerOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.DefaultDelay <= 0 {
		o.DefaultDelay = DefaultCoalesceDelay
	}
}

// BatcherOptions configure a Batcher.
type BatcherOptions struct {
	Options

	// Delay is the collection window opened by the first key of a batch.
	Delay time.Duration
}

func (o *BatcherOptions) FillDefaults() {
	o.Options.FillDefaults()
	if o.Delay <= 0 {
		o.Delay = DefaultBatchDelay
	}
}

// LimiterOptions configure a KeyedLimiter.
type LimiterOptions struct {
	// Window is the period over which MaxRequests are allowed per key.
	Window time.Duration

	// MaxRequests is the per-key budget for one Window.
	MaxRequests int

	// Clock defaults to the wall clock.
	Clock Clock
}

func (o *LimiterOptions) FillDefaults() {
	if o.Window <= 0 {
		o.Window = DefaultLimitWindow
	}
	if o.MaxRequests <= 0 {
		o.MaxRequests = DefaultLimitRequests
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
}
