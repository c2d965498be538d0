package metrics

import "github.com/prometheus/client_golang/prometheus"

var breakerStates = []string{"closed", "half-open", "open"}

// DependencyMetrics implements the resilience observer for outbound calls.
type DependencyMetrics struct {
	service string

	retriesTotal *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func newDependencyMetrics(service string, registerer prometheus.Registerer) *DependencyMetrics {
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "retries_total",
			Help:      "Total retried calls to external dependencies by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dependency",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state per operation (1 for the active state).",
		},
		[]string{"service", "operation", "state"},
	)

	registerer.MustRegister(retriesTotal, breakerState)

	return &DependencyMetrics{
		service:      service,
		retriesTotal: retriesTotal,
		breakerState: breakerState,
	}
}

func (m *DependencyMetrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *DependencyMetrics) ObserveBreakerState(operation string, state string) {
	for _, candidate := range breakerStates {
		value := 0.0
		if candidate == state {
			value = 1
		}
		m.breakerState.WithLabelValues(m.service, operation, candidate).Set(value)
	}
}
