package schedkit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Decision is the outcome of a KeyedLimiter check.
type Decision struct {
	Allowed bool

	// Remaining is the number of requests still available right now.
	Remaining int

	// RetryAfter is how long to wait before the next request for the
	// key would be allowed. Zero when Allowed.
	RetryAfter time.Duration
}

// KeyedLimiter gives every key a budget of MaxRequests per Window.
//
// Each key owns a token bucket holding up to MaxRequests tokens and
// refilled at MaxRequests per Window.
type KeyedLimiter struct {
	opts  LimiterOptions
	every rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewKeyedLimiter(opts LimiterOptions) *KeyedLimiter {
	opts.FillDefaults()
	return &KeyedLimiter{
		opts:     opts,
		every:    rate.Every(opts.Window / time.Duration(opts.MaxRequests)),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Check consumes one request from key's budget if available.
func (l *KeyedLimiter) Check(key string) Decision {
	now := l.opts.Clock.Now()

	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.opts.MaxRequests)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	if lim.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: remaining(lim.TokensAt(now))}
	}

	r := lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return Decision{RetryAfter: wait}
}

func remaining(tokens float64) int {
	if tokens <= 0 {
		return 0
	}
	return int(math.Floor(tokens))
}

// Reset restores the full budget of key.
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.limiters, key)
	l.mu.Unlock()
}

// Len returns the number of keys being tracked.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
