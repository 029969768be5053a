// Package metrics exports authorization flow outcomes to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts flow operations by provider, operation and outcome. It
// implements auth.Recorder.
type Metrics struct {
	Operations *prometheus.CounterVec
}

// Option configures Metrics.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	namespace  string
}

// WithRegisterer registers the collectors on r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithNamespace prefixes metric names.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// New creates and registers the flow metrics.
func New(opts ...Option) *Metrics {
	o := options{registerer: prometheus.DefaultRegisterer, namespace: "authclient"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Metrics{
		Operations: promauto.With(o.registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "flow_operations_total",
			Help:      "Total number of authorization flow operations by outcome",
		}, []string{"provider", "operation", "outcome"}),
	}
}

// RecordOperation increments the counter for one completed operation.
func (m *Metrics) RecordOperation(provider, operation, outcome string) {
	m.Operations.WithLabelValues(provider, operation, outcome).Inc()
}
