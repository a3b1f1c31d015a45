package schedkit

import (
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
)

const (
	defaultRespawnAttempts = 5
	defaultRespawnInitial  = 50 * time.Millisecond
	defaultRespawnMax      = 5 * time.Second
)

// RespawnPolicy describes how a crashed worker is replaced.
// Zero values are treated as "use defaults".
type RespawnPolicy struct {
	// Attempts is the maximum number of factory calls per crash.
	// When every attempt fails the worker slot is retired.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

func (rp *RespawnPolicy) fillDefaults() {
	if rp.Attempts <= 0 {
		rp.Attempts = defaultRespawnAttempts
	}
	if rp.Initial <= 0 {
		rp.Initial = defaultRespawnInitial
	}
	if rp.Max <= 0 {
		rp.Max = defaultRespawnMax
	}
}

// DefaultRespawnPolicy returns the policy used when PoolOptions.Respawn
// is left empty.
func DefaultRespawnPolicy() RespawnPolicy {
	rp := RespawnPolicy{}
	rp.fillDefaults()
	return rp
}

// delays yields the wait before each respawn attempt. The first attempt
// happens immediately.
func (rp RespawnPolicy) delays() func() time.Duration {
	bo := boff.New(rp.Initial, rp.Max, time.Now().UnixNano())
	first := true
	return func() time.Duration {
		if first {
			first = false
			return 0
		}
		return bo.Next()
	}
}
