package schedkit

import (
	"sync"
	"time"
)

// Clock reads the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ---- idle facility ----

// IdleSource is the host facility that runs deferred work when the host
// is idle.
//
// RequestIdle must call fn exactly once, asynchronously, and no later
// than timeout after the request even if the host never becomes idle.
type IdleSource interface {
	RequestIdle(timeout time.Duration, fn func())
}

// DeferredIdle is the fallback idle facility: it has no notion of host
// load and simply runs fn after a minimal delay. It never calls fn
// synchronously, so ordering matches the load-aware source.
type DeferredIdle struct {
	Delay time.Duration
}

func (d DeferredIdle) RequestIdle(timeout time.Duration, fn func()) {
	delay := d.Delay
	if delay <= 0 {
		delay = DefaultIdleDelay
	}
	if timeout > 0 && delay > timeout {
		delay = timeout
	}
	time.AfterFunc(delay, fn)
}

// ProbeIdle is a load-aware idle facility. It polls Busy and runs fn on
// the first poll that finds the host idle, or at the deadline.
type ProbeIdle struct {
	// Busy reports whether the host is currently under load.
	Busy func() bool

	// Poll is the interval between Busy checks.
	Poll time.Duration
}

func (p ProbeIdle) RequestIdle(timeout time.Duration, fn func()) {
	poll := p.Poll
	if poll <= 0 {
		poll = DefaultIdlePoll
	}
	deadline := time.Now().Add(timeout)

	var check func()
	check = func() {
		now := time.Now()
		if p.Busy == nil || !p.Busy() || !now.Before(deadline) {
			fn()
			return
		}
		wait := poll
		if left := deadline.Sub(now); left < wait {
			wait = left
		}
		time.AfterFunc(wait, check)
	}
	time.AfterFunc(0, check)
}

// ---- animation-frame facility ----

// FrameSource delivers animation-frame signals.
//
// RequestFrame must call fn exactly once, asynchronously, on the next
// frame, passing the frame timestamp.
type FrameSource interface {
	RequestFrame(fn func(ts time.Time))
}

// TimerFrames is the fallback frame facility: every request gets its own
// timer that fires after Interval.
type TimerFrames struct {
	Interval time.Duration
}

func (t TimerFrames) RequestFrame(fn func(ts time.Time)) {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	time.AfterFunc(interval, func() { fn(time.Now()) })
}

// FrameSignal is a frame facility driven by the host's own render loop.
// Callbacks requested before a Fire call run during that call.
type FrameSignal struct {
	mu      sync.Mutex
	pending []func(ts time.Time)
}

func NewFrameSignal() *FrameSignal { return &FrameSignal{} }

func (s *FrameSignal) RequestFrame(fn func(ts time.Time)) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Fire delivers one frame and reports how many callbacks ran.
// Callbacks requested while the frame runs wait for the next Fire.
func (s *FrameSignal) Fire(ts time.Time) int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn(ts)
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next frame.
func (s *FrameSignal) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// TickerFrames drives a FrameSignal from a fixed-cadence ticker.
type TickerFrames struct {
	signal *FrameSignal
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTickerFrames starts a ticker firing every interval. Call Stop to
// release it.
func NewTickerFrames(interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	t := &TickerFrames{
		signal: NewFrameSignal(),
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	go t.loop()
	return t
}

func (t *TickerFrames) loop() {
	for {
		select {
		case <-t.stop:
			return
		case ts := <-t.ticker.C:
			t.signal.Fire(ts)
		}
	}
}

func (t *TickerFrames) RequestFrame(fn func(ts time.Time)) {
	t.signal.RequestFrame(fn)
}

// Stop halts the ticker. Pending callbacks never run.
func (t *TickerFrames) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.stop)
	})
}
