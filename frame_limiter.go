package schedkit

import (
	"sync"
	"time"
)

// FrameRateLimiter admits frame ticks no more often than a target rate.
//
// It is a pure gate with no queue. On admission the baseline moves to
// the last interval boundary rather than to now, so overshoot does not
// accumulate into drift.
type FrameRateLimiter struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewFrameRateLimiter creates a limiter for targetFPS frames per second.
// A non-positive targetFPS uses DefaultTargetFPS; a nil clock uses the
// wall clock.
func NewFrameRateLimiter(targetFPS int, clock Clock) *FrameRateLimiter {
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &FrameRateLimiter{
		clock:    clock,
		interval: time.Second / time.Duration(targetFPS),
	}
}

// ShouldUpdate reports whether the current tick may run. The first call
// always admits.
func (l *FrameRateLimiter) ShouldUpdate() bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last.IsZero() {
		l.last = now
		return true
	}
	elapsed := now.Sub(l.last)
	if elapsed < l.interval {
		return false
	}
	l.last = now.Add(-(elapsed % l.interval))
	return true
}

// Interval returns the minimum spacing between admitted ticks.
func (l *FrameRateLimiter) Interval() time.Duration { return l.interval }
