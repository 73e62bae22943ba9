// Package metrics provides Prometheus instrumentation for apiflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for apiflow components.
type Registry struct {
	// Quota (rate limit) metrics
	QuotaReservations *prometheus.CounterVec
	QuotaAllowed      *prometheus.CounterVec
	QuotaDelayed      *prometheus.CounterVec
	QuotaWaitTime     *prometheus.HistogramVec
	QuotaRemaining    *prometheus.GaugeVec

	// Circuit breaker metrics
	BreakerState       *prometheus.GaugeVec
	BreakerFailures    *prometheus.CounterVec
	BreakerRejected    *prometheus.CounterVec
	BreakerTransitions *prometheus.CounterVec

	// Dispatch metrics
	DispatchRequests *prometheus.CounterVec
	DispatchAttempts *prometheus.CounterVec
	DispatchRetries  *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	DispatchInflight *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by apiflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		QuotaReservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "quota",
				Name:      "reservations_total",
				Help:      "Total number of quota reservation attempts",
			},
			[]string{"window_name"},
		),

		QuotaAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "quota",
				Name:      "allowed_total",
				Help:      "Total number of reservations granted immediately",
			},
			[]string{"window_name"},
		),

		QuotaDelayed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "quota",
				Name:      "delayed_total",
				Help:      "Total number of reservations answered with a wait",
			},
			[]string{"window_name"},
		),

		QuotaWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apiflow",
				Subsystem: "quota",
				Name:      "wait_duration_seconds",
				Help:      "Wait durations handed to callers when the window is full",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"window_name"},
		),

		QuotaRemaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "apiflow",
				Subsystem: "quota",
				Name:      "remaining",
				Help:      "Requests remaining in the current window",
			},
			[]string{"window_name"},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "apiflow",
				Subsystem: "breaker",
				Name:      "state",
				Help:      "Current breaker state (0 closed, 1 open, 2 half-open)",
			},
			[]string{"breaker_name"},
		),

		BreakerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "breaker",
				Name:      "failures_total",
				Help:      "Total number of infrastructure failures recorded",
			},
			[]string{"breaker_name"},
		),

		BreakerRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "breaker",
				Name:      "rejected_total",
				Help:      "Total number of calls rejected while the circuit was open",
			},
			[]string{"breaker_name"},
		),

		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "breaker",
				Name:      "transitions_total",
				Help:      "Total number of state transitions",
			},
			[]string{"breaker_name", "to_state"},
		),

		DispatchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by final outcome",
			},
			[]string{"class", "outcome"},
		),

		DispatchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "dispatch",
				Name:      "attempts_total",
				Help:      "Total number of transport attempts",
			},
			[]string{"class"},
		),

		DispatchRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiflow",
				Subsystem: "dispatch",
				Name:      "retries_total",
				Help:      "Total number of retried attempts",
			},
			[]string{"class"},
		),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apiflow",
				Subsystem: "dispatch",
				Name:      "request_duration_seconds",
				Help:      "End-to-end request duration including waits and retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"class"},
		),

		DispatchInflight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "apiflow",
				Subsystem: "dispatch",
				Name:      "inflight",
				Help:      "Number of requests currently in flight",
			},
			[]string{"class"},
		),
	}
}
