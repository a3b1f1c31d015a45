package schedkit_test

import (
	"testing"
	"time"

	sk "github.com/azargarov/schedkit"
)

func TestFrameRateLimiterFirstCallAdmits(t *testing.T) {
	clock := newFakeClock()
	l := sk.NewFrameRateLimiter(30, clock)

	if !l.ShouldUpdate() {
		t.Fatal("first call must admit")
	}
	if l.ShouldUpdate() {
		t.Fatal("second call at the same instant must be refused")
	}
	clock.Advance(l.Interval())
	if !l.ShouldUpdate() {
		t.Fatal("call one interval later must admit")
	}
}

func TestFrameRateLimiterNoDrift(t *testing.T) {
	clock := newFakeClock()
	l := sk.NewFrameRateLimiter(10, clock)

	admitted := 0
	for elapsed := time.Duration(0); elapsed < 10*time.Second; elapsed += 7 * time.Millisecond {
		if l.ShouldUpdate() {
			admitted++
		}
		clock.Advance(7 * time.Millisecond)
	}

	// Resetting the baseline to the admission time would lose up to one
	// step per frame and admit about 95.
	if admitted < 99 || admitted > 101 {
		t.Fatalf("admitted = %d; want about 100", admitted)
	}
}

func TestFrameRateLimiterDefaults(t *testing.T) {
	l := sk.NewFrameRateLimiter(0, nil)
	if want := time.Second / sk.DefaultTargetFPS; l.Interval() != want {
		t.Fatalf("interval = %v; want %v", l.Interval(), want)
	}
}
