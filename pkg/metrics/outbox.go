package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox failure reasons.
const (
	OutboxReasonRetry        = "retry"
	OutboxReasonNonRetryable = "non_retryable"
	OutboxReasonMaxAttempts  = "max_attempts"
)

// OutboxMetrics tracks the relay from outbox_events to Pub/Sub.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_published_total",
		Help:      "Outbox events delivered to Pub/Sub.",
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_failures_total",
		Help:      "Outbox publish failures by reason.",
	}, []string{"event_type", "reason"})
	reg.MustRegister(published, failures)
	return &OutboxMetrics{published: published, failures: failures}
}

func (m *OutboxMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) IncFailure(eventType, reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}
