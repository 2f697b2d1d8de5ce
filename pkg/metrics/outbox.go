package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutboxPublished    = "published"
	OutboxRetried      = "retried"
	OutboxDeadLettered = "dead_lettered"
)

// OutboxMetrics counts outbox publisher outcomes per event type.
type OutboxMetrics struct {
	events *prometheus.CounterVec
}

// NewOutboxMetrics registers the publisher counters. A nil registerer yields
// a collector that records nothing.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_outbox_events_total",
		Help: "Outbox rows handled by the publisher, by outcome.",
	}, []string{"event_type", "result"})
	reg.MustRegister(events)
	return &OutboxMetrics{events: events}
}

func (m *OutboxMetrics) Observe(eventType, result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), result).Inc()
}
