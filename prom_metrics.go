package schedkit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values for completion status.
const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// PromMetrics is a MetricsPolicy that exports scheduler activity as
// Prometheus series labelled by component.
type PromMetrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	queued    *prometheus.GaugeVec
	active    *prometheus.GaugeVec
}

// NewPromMetrics creates the collectors under namespace and registers
// them with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPromMetrics(reg prometheus.Registerer, namespace string) (*PromMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PromMetrics{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submitted_total",
				Help:      "Total number of tasks accepted by a scheduler.",
			},
			[]string{"component"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completed_total",
				Help:      "Total number of tasks completed by a scheduler, by status.",
			},
			[]string{"component", "status"},
		),
		queued: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queued",
				Help:      "Number of tasks waiting in a scheduler.",
			},
			[]string{"component"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active",
				Help:      "Number of tasks currently running in a scheduler.",
			},
			[]string{"component"},
		),
	}
	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.queued, m.active} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-initialize label combinations so every component shows up with
	// value 0 before its first observation.
	for c := Component(0); c < componentCount; c++ {
		name := c.String()
		m.submitted.WithLabelValues(name)
		m.completed.WithLabelValues(name, statusOK)
		m.completed.WithLabelValues(name, statusFailed)
		m.queued.WithLabelValues(name)
		m.active.WithLabelValues(name)
	}
	return m, nil
}

func (m *PromMetrics) IncSubmitted(c Component) {
	m.submitted.WithLabelValues(c.String()).Inc()
}

func (m *PromMetrics) IncExecuted(c Component) {
	m.completed.WithLabelValues(c.String(), statusOK).Inc()
}

func (m *PromMetrics) IncFailed(c Component) {
	m.completed.WithLabelValues(c.String(), statusFailed).Inc()
}

func (m *PromMetrics) AddQueued(c Component, delta int64) {
	m.queued.WithLabelValues(c.String()).Add(float64(delta))
}

func (m *PromMetrics) AddActive(c Component, delta int64) {
	m.active.WithLabelValues(c.String()).Add(float64(delta))
}
