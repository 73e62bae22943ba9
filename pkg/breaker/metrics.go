package breaker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/apiflow/pkg/metrics"
)

// MetricsBreaker wraps a Breaker with Prometheus metrics collection.
type MetricsBreaker struct {
	breaker  Breaker
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new circuit breaker with metrics enabled.
func NewWithMetrics(failureThreshold int, recoveryTimeout time.Duration, name string) (Breaker, error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{
		FailureThreshold: failureThreshold,
		RecoveryTimeout:  recoveryTimeout,
		Clock:            SystemClock{},
	}, name, config)
}

// NewWithConfigAndMetrics creates a new circuit breaker with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Breaker, error) {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return base, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsBreaker{
		breaker:  base,
		name:     name,
		registry: registry,
		enabled:  true,
	}, nil
}

// Allow reports whether a call may be attempted now.
func (mb *MetricsBreaker) Allow() bool {
	before := mb.breaker.State()
	allowed := mb.breaker.Allow()

	if mb.enabled {
		if !allowed {
			mb.registry.BreakerRejected.WithLabelValues(mb.name).Inc()
		}
		mb.observeState(before)
	}

	return allowed
}

// OnSuccess records a successful call.
func (mb *MetricsBreaker) OnSuccess() {
	before := mb.breaker.State()
	mb.breaker.OnSuccess()

	if mb.enabled {
		mb.observeState(before)
	}
}

// OnFailure records an infrastructure failure.
func (mb *MetricsBreaker) OnFailure() {
	before := mb.breaker.State()
	mb.breaker.OnFailure()

	if mb.enabled {
		mb.registry.BreakerFailures.WithLabelValues(mb.name).Inc()
		mb.observeState(before)
	}
}

// Cancel surrenders a granted half-open probe without recording an outcome.
func (mb *MetricsBreaker) Cancel() {
	mb.breaker.Cancel()
}

// State returns the current circuit state.
func (mb *MetricsBreaker) State() State {
	return mb.breaker.State()
}

// Status returns a read-only snapshot for health reporting.
func (mb *MetricsBreaker) Status() Status {
	return mb.breaker.Status()
}

// observeState updates the state gauge and records a transition when the
// state changed since before the wrapped call.
func (mb *MetricsBreaker) observeState(before State) {
	after := mb.breaker.State()
	mb.registry.BreakerState.WithLabelValues(mb.name).Set(float64(after))
	if after != before {
		mb.registry.BreakerTransitions.WithLabelValues(mb.name, after.String()).Inc()
	}
}

// EnableMetrics enables metrics collection.
func (mb *MetricsBreaker) EnableMetrics(config metrics.Config) error {
	mb.enabled = config.Enabled

	if config.Registry != nil {
		mb.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mb *MetricsBreaker) DisableMetrics() {
	mb.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mb *MetricsBreaker) MetricsEnabled() bool {
	return mb.enabled
}
