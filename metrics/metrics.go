// Package metrics defines the Prometheus instruments exposed on the
// status server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the bridge's Prometheus collectors.
type Metrics struct {
	// MessagesHandled counts inbound messages by outcome:
	// rule, backend, handoff, control, pong, ignored.
	MessagesHandled *prometheus.CounterVec

	// IntentMatches counts intent rule hits by rule name.
	IntentMatches *prometheus.CounterVec

	// BackendRequests counts backend calls by result:
	// success, error, fallback.
	BackendRequests *prometheus.CounterVec

	// BackendLatency observes backend call latency by HTTP status.
	BackendLatency *prometheus.HistogramVec
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabridge",
			Name:      "messages_handled_total",
			Help:      "Inbound messages by handling outcome.",
		}, []string{"outcome"}),
		IntentMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabridge",
			Name:      "intent_matches_total",
			Help:      "Intent rule hits by rule name.",
		}, []string{"rule"}),
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wabridge",
			Name:      "backend_requests_total",
			Help:      "Backend /ask calls by result.",
		}, []string{"result"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wabridge",
			Name:      "backend_latency_seconds",
			Help:      "Backend /ask latency by HTTP status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
}
