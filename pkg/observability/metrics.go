package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "foreman"

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	NodeErrors   *prometheus.CounterVec
	Routes       *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunSteps     prometheus.Histogram
	RunDuration  prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_visits_total",
			Help:      "Total number of agent node executions.",
		}, []string{"agent"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of agent node executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
		NodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_errors_total",
			Help:      "Agent node executions that returned an error.",
		}, []string{"agent"}),
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "routes_total",
			Help:      "Routing decisions committed by the supervisor.",
		}, []string{"task_kind", "route"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Finished runs by terminal phase and failure kind.",
		}, []string{"phase", "failure"}),
		RunSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_steps",
			Help:      "Number of node executions per finished run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall clock duration of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.NodeVisits, m.NodeDuration, m.NodeErrors, m.Routes, m.Runs, m.RunSteps, m.RunDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(string(e.Agent)).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(string(e.Agent)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.NodeErrors.WithLabelValues(string(e.Agent)).Inc()
			}
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.Routes.WithLabelValues(string(e.TaskKind), string(e.Route)).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			failure := ""
			if e.Failure != nil {
				failure = string(e.Failure.Kind)
			}
			m.Runs.WithLabelValues(string(e.Phase), failure).Inc()
			m.RunSteps.Observe(float64(e.Steps))
			m.RunDuration.Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
