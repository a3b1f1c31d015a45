package schedkit

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// FramePriority orders callbacks in a FrameScheduler.
// The zero value is FrameNormal.
type FramePriority int

const (
	FrameNormal FramePriority = iota
	FrameHigh
	FrameLow
)

func (p FramePriority) String() string {
	switch p {
	case FrameHigh:
		return "high"
	case FrameNormal:
		return "normal"
	case FrameLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseFramePriority accepts "high", "normal" or "low".
func ParseFramePriority(s string) (FramePriority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return FrameHigh, nil
	case "", "normal":
		return FrameNormal, nil
	case "low":
		return FrameLow, nil
	default:
		return FrameNormal, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// tier maps a priority to its drain position, high first.
func (p FramePriority) tier() int {
	switch p {
	case FrameHigh:
		return 0
	case FrameLow:
		return 2
	default:
		return 1
	}
}

// FrameScheduler drains three priority tiers at a cadence of at most one
// callback per animation frame.
//
// The next callback is chosen when the previous frame completes, high
// before normal before low, FIFO within a tier. When nothing is pending
// the frame loop halts and the next Schedule restarts it.
type FrameScheduler struct {
	opts FrameOptions

	mu         sync.Mutex
	tiers      [3]*fifoQueue[func()]
	processing bool
}

func NewFrameScheduler(opts FrameOptions) *FrameScheduler {
	opts.FillDefaults()
	s := &FrameScheduler{opts: opts}
	for i := range s.tiers {
		s.tiers[i] = newFifoQueue[func()](initialFifoCapacity)
	}
	return s
}

// Schedule queues fn in the tier for p.
func (s *FrameScheduler) Schedule(fn func(), p FramePriority) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	s.tiers[p.tier()].Push(fn)
	start := !s.processing
	s.processing = true
	s.mu.Unlock()

	s.opts.Metrics.IncSubmitted(CompFrameScheduler)
	s.opts.Metrics.AddQueued(CompFrameScheduler, 1)
	if start {
		s.next()
	}
}

// next pops the most urgent callback and runs it on the next frame.
func (s *FrameScheduler) next() {
	s.mu.Lock()
	var fn func()
	for _, t := range s.tiers {
		if v, ok := t.Pop(); ok {
			fn = v
			break
		}
	}
	if fn == nil {
		s.processing = false
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.opts.Metrics.AddQueued(CompFrameScheduler, -1)
	s.opts.Source.RequestFrame(func(time.Time) {
		s.opts.Metrics.AddActive(CompFrameScheduler, 1)
		s.opts.runCallback(CompFrameScheduler, fn)
		s.opts.Metrics.AddActive(CompFrameScheduler, -1)
		s.next()
	})
}

// Pending returns the number of callbacks waiting in all tiers.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tiers {
		n += t.Len()
	}
	return n
}
