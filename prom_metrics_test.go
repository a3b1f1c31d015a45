package schedkit_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	sk "github.com/azargarov/schedkit"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPromMetricsRecordsQueueActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := sk.NewPromMetrics(reg, "schedkit")
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	q := sk.NewPriorityQueue(sk.QueueOptions{Options: sk.Options{Metrics: m}, Concurrency: 2})
	for i := range 3 {
		if _, err := await(t, sk.Add(q, func(context.Context) (int, error) { return i, nil }, 0)); err != nil {
			t.Fatal(err)
		}
	}

	comp := map[string]string{"component": "priority_queue"}
	if v := gatherValue(t, reg, "schedkit_submitted_total", comp); v != 3 {
		t.Fatalf("submitted = %v; want 3", v)
	}
	ok := map[string]string{"component": "priority_queue", "status": "ok"}
	waitUntil(t, testWait, func() bool { return gatherValue(t, reg, "schedkit_completed_total", ok) == 3 })
	if v := gatherValue(t, reg, "schedkit_queued", comp); v != 0 {
		t.Fatalf("queued = %v; want 0", v)
	}

	idle := map[string]string{"component": "idle_scheduler"}
	if v := gatherValue(t, reg, "schedkit_submitted_total", idle); v != 0 {
		t.Fatalf("untouched component = %v; want pre-initialized 0", v)
	}
}

func TestPromMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := sk.NewPromMetrics(reg, "dup"); err != nil {
		t.Fatal(err)
	}
	if _, err := sk.NewPromMetrics(reg, "dup"); err == nil {
		t.Fatal("expected already-registered error")
	}
}
