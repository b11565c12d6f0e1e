// Package observability holds the Prometheus collectors of the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sortify"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ChatRequestsTotal counts /api/chat outcomes.
	// Labels: outcome (ok, safety, invalid, unauthorized)
	ChatRequestsTotal *prometheus.CounterVec

	// CompletionCallsTotal counts completion client results.
	// Labels: kind (reply, takeaway), result (ok, empty, error, offline)
	CompletionCallsTotal *prometheus.CounterVec

	// CompletionDurationSeconds measures completion provider round trips.
	// Labels: kind
	CompletionDurationSeconds *prometheus.HistogramVec

	// ProviderRequestsTotal counts auth/storage provider calls.
	// Labels: api (auth, rest, storage), status_class (2xx, 4xx, 5xx, transport)
	ProviderRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChatRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "chat_requests_total",
				Help:      "Chat requests by outcome",
			},
			[]string{"outcome"},
		),
		CompletionCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "completion_calls_total",
				Help:      "Completion client invocations by kind and result",
			},
			[]string{"kind", "result"},
		),
		CompletionDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "completion_duration_seconds",
				Help:      "Completion provider call latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "provider_requests_total",
				Help:      "Auth/storage provider requests by api and status class",
			},
			[]string{"api", "status_class"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ChatRequestsTotal,
			m.CompletionCallsTotal,
			m.CompletionDurationSeconds,
			m.ProviderRequestsTotal,
		)
	}
	return m
}

// ChatOutcome records one /api/chat outcome.
func (m *Metrics) ChatOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(outcome).Inc()
}

// Completion records one completion client result and, when seconds > 0, its latency.
func (m *Metrics) Completion(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.CompletionCallsTotal.WithLabelValues(kind, result).Inc()
	if seconds > 0 {
		m.CompletionDurationSeconds.WithLabelValues(kind).Observe(seconds)
	}
}

// ProviderRequest records one provider call. status 0 means a transport failure.
func (m *Metrics) ProviderRequest(api string, status int) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(api, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "transport"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
