package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by materialization hooks.
type Metrics struct {
	registry *prometheus.Registry

	NodesCreated      *prometheus.CounterVec
	ParameterFailures *prometheus.CounterVec
	ConnectFailures   *prometheus.CounterVec
	CreateDuration    prometheus.Histogram
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		NodesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodechain_nodes_created_total",
				Help: "Total number of host nodes created from definitions",
			},
			[]string{"type"},
		),
		ParameterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodechain_parameter_failures_total",
				Help: "Parameter applications rejected by the host",
			},
			[]string{"type"},
		),
		ConnectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodechain_connect_failures_total",
				Help: "Input connections rejected by the host",
			},
			[]string{"type"},
		),
		CreateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nodechain_materialize_duration_seconds",
			Help:    "Time spent creating one node, including its upstream inputs",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.registry.MustRegister(m.NodesCreated, m.ParameterFailures, m.ConnectFailures, m.CreateDuration)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeCreated: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesCreated.WithLabelValues(e.NodeType).Inc()
			m.CreateDuration.Observe(e.Duration.Seconds())
		},
		OnParameterError: func(_ context.Context, e *domain.FailureEvent) {
			m.ParameterFailures.WithLabelValues(e.NodeType).Inc()
		},
		OnConnectError: func(_ context.Context, e *domain.FailureEvent) {
			m.ConnectFailures.WithLabelValues(e.NodeType).Inc()
		},
	}
}

// Chain combines hooks so that every non-nil callback runs in order.
func Chain(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeCreated: func(ctx context.Context, e *domain.NodeEvent) {
			for _, h := range all {
				if h.OnNodeCreated != nil {
					h.OnNodeCreated(ctx, e)
				}
			}
		},
		OnParameterError: func(ctx context.Context, e *domain.FailureEvent) {
			for _, h := range all {
				if h.OnParameterError != nil {
					h.OnParameterError(ctx, e)
				}
			}
		},
		OnConnectError: func(ctx context.Context, e *domain.FailureEvent) {
			for _, h := range all {
				if h.OnConnectError != nil {
					h.OnConnectError(ctx, e)
				}
			}
		},
	}
}
