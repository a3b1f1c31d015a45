package schedkit

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/oklog/ulid/v2"
)

type poolEntry[In, Out any] struct {
	id  ulid.ULID
	in  In
	fut *Future[Out]
}

// workerSlot owns one worker and the goroutine driving it.
type workerSlot[In, Out any] struct {
	id     int
	assign chan poolEntry[In, Out] // cap 1; only written while the slot is reserved

	mu     sync.Mutex
	w      Worker[In, Out]
	closed bool
}

func (s *workerSlot[In, Out]) worker() Worker[In, Out] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w
}

// replace installs w unless the slot was closed meanwhile.
func (s *workerSlot[In, Out]) replace(w Worker[In, Out]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.w = w
	return true
}

func (s *workerSlot[In, Out]) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.w == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.w.Close()
}

// TaskPool distributes independent tasks across a fixed set of workers.
//
// Execute dispatches to an idle worker immediately or queues the task in
// FIFO order. A worker that finishes a task picks up the oldest queued
// task before becoming idle again. There is no priority here and no
// cancellation of queued or running tasks.
type TaskPool[In, Out any] struct {
	opts    PoolOptions
	factory WorkerFactory[In, Out]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	slots      []*workerSlot[In, Out]
	idle       []*workerSlot[In, Out]
	queue      *fifoQueue[poolEntry[In, Out]]
	busy       int
	live       int
	terminated bool
}

// NewTaskPool spawns opts.Workers workers through factory.
//
// If any worker cannot be created, the ones already created are closed
// and the factory error is returned.
func NewTaskPool[In, Out any](factory WorkerFactory[In, Out], opts PoolOptions) (*TaskPool[In, Out], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	opts.FillDefaults()

	p := &TaskPool[In, Out]{
		opts:    opts,
		factory: factory,
		queue:   newFifoQueue[poolEntry[In, Out]](initialFifoCapacity),
	}
	p.ctx, p.cancel = context.WithCancel(opts.Ctx)

	for i := 0; i < opts.Workers; i++ {
		w, err := factory(i)
		if err != nil {
			for _, s := range p.slots {
				_ = s.close()
			}
			p.cancel()
			return nil, fmt.Errorf("schedkit: create worker %d: %w", i, err)
		}
		s := &workerSlot[In, Out]{id: i, w: w, assign: make(chan poolEntry[In, Out], 1)}
		p.slots = append(p.slots, s)
		p.idle = append(p.idle, s)
	}
	p.live = len(p.slots)

	for i, s := range p.slots {
		p.wg.Add(1)
		go p.worker(s, i)
	}

	lg.FromContext(opts.Ctx).Info("task pool started",
		lg.Int("workers", opts.Workers),
		lg.Any("pinned", opts.PinWorkers),
	)
	return p, nil
}

// Execute submits in and returns a future for its result.
//
// The returned future carries no cancellation; after Terminate it may
// never settle, so bound waits with Future.Await.
func (p *TaskPool[In, Out]) Execute(in In) *Future[Out] {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return failedFuture[Out](ErrPoolTerminated)
	}
	if p.live == 0 {
		p.mu.Unlock()
		return failedFuture[Out](fmt.Errorf("%w: no live workers", ErrWorkerFatal))
	}

	e := poolEntry[In, Out]{id: ulid.Make(), in: in, fut: newFuture[Out]()}
	p.opts.Metrics.IncSubmitted(CompTaskPool)

	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.busy++
		p.mu.Unlock()
		s.assign <- e
		return e.fut
	}

	p.queue.Push(e)
	p.mu.Unlock()
	p.opts.Metrics.AddQueued(CompTaskPool, 1)
	return e.fut
}

func (p *TaskPool[In, Out]) worker(s *workerSlot[In, Out], idx int) {
	defer p.wg.Done()

	if p.opts.PinWorkers {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := PinToCPU(idx); err != nil {
			p.opts.reportInternalError(fmt.Errorf("pin worker %d: %w", s.id, err))
		}
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case e := <-s.assign:
			if !p.runEntry(s, e) {
				return
			}
		}
	}
}

// runEntry executes one entry on s. It reports false once the slot must
// stop: the pool was terminated or the worker could not be respawned.
func (p *TaskPool[In, Out]) runEntry(s *workerSlot[In, Out], e poolEntry[In, Out]) bool {
	p.opts.Metrics.AddActive(CompTaskPool, 1)
	out, err, fatal := p.invoke(s, e)
	p.opts.Metrics.AddActive(CompTaskPool, -1)

	if p.ctx.Err() != nil {
		// Terminated: outstanding futures are left unsettled.
		return false
	}

	if err != nil {
		p.opts.Metrics.IncFailed(CompTaskPool)
		lg.FromContext(p.opts.Ctx).Warn("task failed",
			lg.String("task", e.id.String()),
			lg.Int("worker", s.id),
			lg.Any("fatal", fatal),
			lg.Any("error", err),
		)
	} else {
		p.opts.Metrics.IncExecuted(CompTaskPool)
	}
	e.fut.settle(out, err)

	if fatal && !p.respawn(s) {
		p.retire(s)
		return false
	}
	p.release(s)
	return true
}

func (p *TaskPool[In, Out]) invoke(s *workerSlot[In, Out], e poolEntry[In, Out]) (out Out, err error, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			out, err, fatal = zero, &PanicError{Value: r}, true
		}
	}()
	w := s.worker()
	out, err = w.Run(p.ctx, e.in)
	return out, err, err != nil && errors.Is(err, ErrWorkerFatal)
}

// release hands s the next queued entry or marks it idle.
func (p *TaskPool[In, Out]) release(s *workerSlot[In, Out]) {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	if e, ok := p.queue.Pop(); ok {
		p.mu.Unlock()
		p.opts.Metrics.AddQueued(CompTaskPool, -1)
		s.assign <- e
		return
	}
	p.busy--
	p.idle = append(p.idle, s)
	p.mu.Unlock()
}

// respawn replaces the crashed worker of s, backing off between
// factory failures. It reports false when the slot cannot be refilled.
func (p *TaskPool[In, Out]) respawn(s *workerSlot[In, Out]) bool {
	logger := lg.FromContext(p.opts.Ctx).With(lg.Int("worker", s.id))

	if old := s.worker(); old != nil {
		if err := old.Close(); err != nil {
			p.opts.reportInternalError(fmt.Errorf("close crashed worker %d: %w", s.id, err))
		}
	}

	next := p.opts.Respawn.delays()
	for attempt := 1; attempt <= p.opts.Respawn.Attempts; attempt++ {
		if d := next(); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-p.ctx.Done():
				timer.Stop()
				return false
			}
		}

		w, err := p.factory(s.id)
		if err != nil {
			logger.Warn("worker respawn failed", lg.Int("attempt", attempt), lg.Any("error", err))
			continue
		}
		if !s.replace(w) {
			_ = w.Close()
			return false
		}
		logger.Info("worker respawned", lg.Int("attempt", attempt))
		return true
	}

	p.opts.reportInternalError(fmt.Errorf("worker %d retired after %d respawn attempts", s.id, p.opts.Respawn.Attempts))
	return false
}

// retire removes s from service. When no worker is left, queued entries
// fail instead of waiting forever.
func (p *TaskPool[In, Out]) retire(s *workerSlot[In, Out]) {
	_ = s.close()

	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	p.busy--
	p.live--
	var orphans []poolEntry[In, Out]
	if p.live == 0 {
		for {
			e, ok := p.queue.Pop()
			if !ok {
				break
			}
			orphans = append(orphans, e)
		}
	}
	p.mu.Unlock()

	if len(orphans) > 0 {
		p.opts.Metrics.AddQueued(CompTaskPool, -int64(len(orphans)))
	}
	for _, e := range orphans {
		var zero Out
		p.opts.Metrics.IncFailed(CompTaskPool)
		e.fut.settle(zero, fmt.Errorf("%w: no live workers", ErrWorkerFatal))
	}
}

// Terminate forcibly stops every worker and drops the queue.
//
// Futures of queued and running tasks are never settled. Terminate does
// not wait for worker goroutines; use Shutdown for that.
func (p *TaskPool[In, Out]) Terminate() {
	p.mu.Lock()
	if p.terminated {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	dropped := p.queue.Len()
	p.queue.Clear()
	p.idle = nil
	slots := p.slots
	p.mu.Unlock()

	if dropped > 0 {
		p.opts.Metrics.AddQueued(CompTaskPool, -int64(dropped))
	}
	p.cancel()
	for _, s := range slots {
		if err := s.close(); err != nil {
			p.opts.reportInternalError(fmt.Errorf("close worker %d: %w", s.id, err))
		}
	}
	lg.FromContext(p.opts.Ctx).Info("task pool terminated", lg.Int("dropped", dropped))
}

// Shutdown terminates the pool and waits until every worker goroutine
// has returned or ctx ends.
func (p *TaskPool[In, Out]) Shutdown(ctx context.Context) error {
	p.Terminate()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the number of workers still in service.
func (p *TaskPool[In, Out]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Busy returns the number of workers reserved for a task.
func (p *TaskPool[In, Out]) Busy() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Idle returns the number of workers waiting for a task.
func (p *TaskPool[In, Out]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *TaskPool[In, Out]) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}
