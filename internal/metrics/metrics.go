// Package metrics defines the Prometheus collectors for remote calls and fallbacks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meumural"

// Outcome labels for remote calls.
const (
	OutcomeOK      = "ok"
	OutcomeNetwork = "network"
	OutcomeStatus  = "status"
	OutcomeDecode  = "decode"
)

// Metrics groups the client's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Duration of backend calls by method, route and outcome.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Operations served from the local mirror after a failed backend call.",
		}, []string{"entity", "op"}),
	}
	reg.MustRegister(m.requestDuration, m.fallbacks)
	return m
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(method, route, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, outcome).Observe(d.Seconds())
}

// IncFallback counts one fallback taken by entity/op (e.g. "group", "create").
func (m *Metrics) IncFallback(entity, op string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(entity, op).Inc()
}

// Fallbacks returns the fallback counter for entity/op.
func (m *Metrics) Fallbacks(entity, op string) prometheus.Counter {
	return m.fallbacks.WithLabelValues(entity, op)
}
