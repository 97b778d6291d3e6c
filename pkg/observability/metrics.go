package observability

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine lifecycle hooks.
type Metrics struct {
	NodeEnters     *prometheus.CounterVec
	Materialized   *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	Unrecognized   *prometheus.CounterVec
	Submissions    prometheus.Counter
	EntriesPerFlow prometheus.Histogram
}

// NewMetrics creates the collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		NodeEnters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_enter_total",
			Help:      "Nodes entered, by node kind.",
		}, []string{"kind"}),
		Materialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "materialize_total",
			Help:      "Holder materializations, by result (hit, miss, error).",
		}, []string{"result"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "materialize_duration_seconds",
			Help:      "Time spent materializing holders that missed the cache.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		Unrecognized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unrecognized_input_total",
			Help:      "Inputs that matched nothing, by node kind.",
		}, []string{"kind"}),
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Finished flows.",
		}),
		EntriesPerFlow: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submitted_entries",
			Help:      "Number of collected entries per finished flow.",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.NodeEnters, m.Materialized, m.LoadDuration, m.Unrecognized, m.Submissions, m.EntriesPerFlow,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeEnters.WithLabelValues(e.Kind).Inc()
		},
		OnMaterialize: func(_ context.Context, e *domain.LoadEvent) {
			switch {
			case e.Err != nil:
				m.Materialized.WithLabelValues("error").Inc()
			case e.CacheHit:
				m.Materialized.WithLabelValues("hit").Inc()
			default:
				m.Materialized.WithLabelValues("miss").Inc()
				m.LoadDuration.Observe(e.Duration.Seconds())
			}
		},
		OnUnrecognized: func(_ context.Context, e *domain.NodeEvent) {
			m.Unrecognized.WithLabelValues(e.Kind).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.Submissions.Inc()
			m.EntriesPerFlow.Observe(float64(len(e.Entries)))
		},
	}
}
