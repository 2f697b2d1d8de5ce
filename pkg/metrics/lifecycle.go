package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transition outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// LifecycleMetrics counts gate pass transitions and pass-number allocation retries.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	retries     prometheus.Counter
	exhausted   prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle collectors on reg. A nil
// registerer yields a no-op recorder.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_transitions_total",
		Help: "Gate pass lifecycle transitions by transition and outcome.",
	}, []string{"transition", "outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatepass_number_allocation_retries_total",
		Help: "Pass number allocations retried after a uniqueness conflict.",
	})
	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatepass_number_allocation_exhausted_total",
		Help: "Pass creations abandoned after exhausting allocation attempts.",
	})
	reg.MustRegister(transitions, retries, exhausted)
	return &LifecycleMetrics{
		transitions: transitions,
		retries:     retries,
		exhausted:   exhausted,
	}
}

// ObserveTransition counts one transition attempt.
func (m *LifecycleMetrics) ObserveTransition(transition, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition), outcome).Inc()
}

func (m *LifecycleMetrics) IncAllocationRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}

func (m *LifecycleMetrics) IncAllocationExhausted() {
	if m == nil || m.exhausted == nil {
		return
	}
	m.exhausted.Inc()
}
