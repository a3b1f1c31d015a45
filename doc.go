// Package schedkit provides the scheduling primitives a client runtime
// needs to keep its main loop responsive: parallel workers, prioritized
// request limiting, request collapsing and deferral of work to idle
// periods or animation frames.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - One owner per piece of bookkeeping, guarded by a single mutex
//   - User callbacks never run while a lock is held
//   - Every submission either settles its future exactly once or is
//     explicitly documented as never settling
//   - Host facilities (idle periods, frames, clocks) are interfaces,
//     so the schedulers run the same against real hosts and tests
//
// Components
//
//   1. TaskPool
//      A fixed set of workers fed from a FIFO queue. Workers may run
//      in-process (FuncWorker) or in child processes (ExecWorker).
//      A worker whose transport fails is respawned with backoff.
//
//   2. PriorityQueue
//      Runs asynchronous operations under a concurrency cap. Waiting
//      operations drain by priority, then insertion order.
//
//   3. Deduplicator and Batcher
//      The Deduplicator hands concurrent callers of the same key one
//      shared future. The Batcher collects keys for a short window and
//      resolves them with a single loader call.
//
//   4. IdleScheduler and FrameScheduler
//      Defer callbacks to host idle periods (bounded by a timeout) or
//      run them one per animation frame in three priority tiers.
//
//   5. Coalescer, FrameRateLimiter and KeyedLimiter
//      The Coalescer debounces bursts of events per key into one flush.
//      The FrameRateLimiter gates ticks to a target rate without drift.
//      The KeyedLimiter gives each key a request budget per window.
//
// Futures
//
// Submissions return a *Future. A Future settles once with a value or
// an error and can be awaited with a context. Awaiting never cancels
// the underlying work: queued and running work cannot be cancelled by
// the caller.
//
// Error handling
//
// The package distinguishes between two classes of errors:
//
//   - Task errors: returned by operations or produced by panic recovery
//   - Internal errors: failures of a component itself, such as a worker
//     that could not be respawned
//
// Task errors settle the task's future. Callbacks with no future (idle,
// frame and coalescer flushes) report through Options.OnTaskError.
// Internal errors go to Options.OnInternalError. Both are logged with
// the zlog logger carried by Options.Ctx.
//
// Metrics
//
// Every component reports to a MetricsPolicy: AtomicMetrics for
// in-process observation, PromMetrics for Prometheus export, or
// NoopMetrics.
//
// CPU pinning
//
// On Linux, TaskPool workers may optionally be pinned to specific
// CPUs. When enabled, workers are locked to OS threads and restricted
// to run on a single CPU core.
//
// Configuration
//
// Config is the YAML form of every component's options. Zero values
// fall back to the package defaults.
package schedkit
