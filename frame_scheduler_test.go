package schedkit_test

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	sk "github.com/azargarov/schedkit"
)

func TestFrameSchedulerTierOrder(t *testing.T) {
	frames := sk.NewFrameSignal()
	s := sk.NewFrameScheduler(sk.FrameOptions{Options: testOptions(nil), Source: frames})
	rec := &recorder{}

	add := func(name string, p sk.FramePriority) {
		s.Schedule(func() { rec.add(name) }, p)
	}

	// N1 starts the loop and is bound to the first frame; the rest wait.
	add("N1", sk.FrameNormal)
	add("L1", sk.FrameLow)
	add("H1", sk.FrameHigh)
	add("N2", sk.FrameNormal)
	add("H2", sk.FrameHigh)

	if s.Pending() != 4 {
		t.Fatalf("pending = %d; want 4", s.Pending())
	}

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		if n := frames.Fire(ts.Add(time.Duration(i) * 16 * time.Millisecond)); n != 1 {
			t.Fatalf("frame %d ran %d callbacks; want 1", i, n)
		}
	}
	if n := frames.Fire(ts); n != 0 {
		t.Fatalf("drained scheduler still requested a frame (%d)", n)
	}

	want := []string{"N1", "H1", "H2", "N2", "L1"}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Fatalf("order = %v; want %v", got, want)
	}
}

func TestFrameSchedulerRestartsAfterDrain(t *testing.T) {
	frames := sk.NewFrameSignal()
	s := sk.NewFrameScheduler(sk.FrameOptions{Options: testOptions(nil), Source: frames})

	ran := 0
	s.Schedule(func() { ran++ }, sk.FrameHigh)
	frames.Fire(time.Now())
	if frames.Pending() != 0 {
		t.Fatal("idle scheduler must not request frames")
	}

	s.Schedule(func() { ran++ }, sk.FrameLow)
	if frames.Pending() != 1 {
		t.Fatalf("pending frames = %d; want 1", frames.Pending())
	}
	frames.Fire(time.Now())
	if ran != 2 {
		t.Fatalf("ran = %d; want 2", ran)
	}
}

func TestFrameSchedulerTickerSource(t *testing.T) {
	ticker := sk.NewTickerFrames(2 * time.Millisecond)
	defer ticker.Stop()
	s := sk.NewFrameScheduler(sk.FrameOptions{Options: testOptions(nil), Source: ticker})

	rec := &recorder{}
	for _, name := range []string{"a", "b", "c"} {
		s.Schedule(func() { rec.add(name) }, sk.FrameNormal)
	}
	waitUntil(t, time.Second, func() bool { return rec.len() == 3 })
	if got := rec.snapshot(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestFrameSchedulerTimerSource(t *testing.T) {
	s := sk.NewFrameScheduler(sk.FrameOptions{
		Options: testOptions(nil),
		Source:  sk.TimerFrames{Interval: time.Millisecond},
	})
	done := make(chan struct{})
	s.Schedule(func() { close(done) }, sk.FrameNormal)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer frame never fired")
	}
}

func TestParseFramePriority(t *testing.T) {
	cases := []struct {
		in   string
		want sk.FramePriority
		err  bool
	}{
		{"high", sk.FrameHigh, false},
		{" Normal ", sk.FrameNormal, false},
		{"", sk.FrameNormal, false},
		{"LOW", sk.FrameLow, false},
		{"urgent", sk.FrameNormal, true},
	}
	for _, c := range cases {
		got, err := sk.ParseFramePriority(c.in)
		if c.err {
			if !errors.Is(err, sk.ErrInvalidPriority) {
				t.Fatalf("%q: err = %v; want ErrInvalidPriority", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("%q = (%v, %v); want %v", c.in, got, err, c.want)
		}
		if got.String() != strings.ToLower(strings.TrimSpace(c.in)) && c.in != "" {
			t.Fatalf("%q round-trips as %q", c.in, got.String())
		}
	}
}
