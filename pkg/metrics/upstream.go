package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK             = "ok"
	OutcomeUpstreamStatus = "upstream_status"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomeTransport      = "transport"
)

// UpstreamMetrics records calls made to the analytics provider.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream collectors on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of analytics upstream requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Analytics upstream requests by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, requests)
	return &UpstreamMetrics{
		duration: duration,
		requests: requests,
	}
}

// Observe records one finished upstream call.
func (m *UpstreamMetrics) Observe(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil || m.requests == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
	m.requests.WithLabelValues(label).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
