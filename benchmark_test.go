package schedkit_test

import (
	"context"
	"os"
	"runtime"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	sk "github.com/azargarov/schedkit"
)

func getenvInt(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func percentile(sorted []int64, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p)
	return time.Duration(sorted[i])
}

func BenchmarkTaskPool_Execute(b *testing.B) {
	workers := getenvInt("WORKERS", runtime.GOMAXPROCS(0))
	pinned := getenvInt("PINNED", 0) > 0

	p, err := sk.NewTaskPool(sk.FuncFactory(func(_ context.Context, in int) (int, error) {
		return in + 1, nil
	}), sk.PoolOptions{Workers: workers, PinWorkers: pinned})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Terminate()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := p.Execute(1).Await(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkPriorityQueue_Latency(b *testing.B) {
	concurrency := getenvInt("CONCURRENCY", sk.DefaultQueueConcurrency)
	q := sk.NewPriorityQueue(sk.QueueOptions{Concurrency: concurrency})

	latencies := make([]int64, b.N)
	var idx atomic.Int64

	b.ResetTimer()
	start := time.Now()

	futures := make([]*sk.Future[struct{}], 0, b.N)
	for i := 0; i < b.N; i++ {
		queued := time.Now()
		futures = append(futures, sk.Add(q, func(context.Context) (struct{}, error) {
			latencies[idx.Add(1)-1] = time.Since(queued).Nanoseconds()
			return struct{}{}, nil
		}, i%8))
	}
	ctx := context.Background()
	for _, f := range futures {
		if _, err := f.Await(ctx); err != nil {
			b.Fatal(err)
		}
	}

	elapsed := time.Since(start)
	b.ReportMetric(float64(b.N)/elapsed.Seconds()/1e6, "Mops/sec")

	slices.Sort(latencies)
	b.ReportMetric(float64(percentile(latencies, 0.50).Nanoseconds()), "p50_ns")
	b.ReportMetric(float64(percentile(latencies, 0.99).Nanoseconds()), "p99_ns")
}

func BenchmarkDeduplicator_HotKey(b *testing.B) {
	d := sk.NewDeduplicator[int](sk.DedupeOptions{})
	gate := make(chan struct{})
	op := func(context.Context) (int, error) {
		<-gate
		return 1, nil
	}

	b.ReportAllocs()
	for b.Loop() {
		_ = d.Dedupe("hot", op)
	}
	close(gate)
}

func BenchmarkFrameRateLimiter(b *testing.B) {
	l := sk.NewFrameRateLimiter(sk.DefaultTargetFPS, nil)
	b.ReportAllocs()
	for b.Loop() {
		_ = l.ShouldUpdate()
	}
}

func BenchmarkKeyedLimiter_Check(b *testing.B) {
	l := sk.NewKeyedLimiter(sk.LimiterOptions{MaxRequests: 1 << 20})
	keys := []string{"a", "b", "c", "d"}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		_ = l.Check(keys[i&3])
		i++
	}
}
