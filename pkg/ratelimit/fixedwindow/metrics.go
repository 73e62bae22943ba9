package fixedwindow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/apiflow/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new fixed-window limiter with metrics enabled.
func NewWithMetrics(limit int, windowDuration time.Duration, name string) (Limiter, error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{
		Limit:  limit,
		Window: windowDuration,
		Clock:  SystemClock{},
	}, name, config)
}

// NewWithConfigAndMetrics creates a new fixed-window limiter with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	baseLimiter, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return baseLimiter, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsLimiter{
		limiter:  baseLimiter,
		name:     name,
		registry: registry,
		enabled:  true,
	}, nil
}

// Reserve attempts to consume one slot in the current window.
func (ml *MetricsLimiter) Reserve() Outcome {
	outcome := ml.limiter.Reserve()

	if ml.enabled {
		ml.registry.QuotaReservations.WithLabelValues(ml.name).Inc()
		if outcome.Allowed {
			ml.registry.QuotaAllowed.WithLabelValues(ml.name).Inc()
		} else {
			ml.registry.QuotaDelayed.WithLabelValues(ml.name).Inc()
			ml.registry.QuotaWaitTime.WithLabelValues(ml.name).Observe(outcome.Wait.Seconds())
		}
		ml.registry.QuotaRemaining.WithLabelValues(ml.name).Set(float64(ml.limiter.Status().Remaining))
	}

	return outcome
}

// Cancel returns one granted reservation to the current window.
func (ml *MetricsLimiter) Cancel() {
	ml.limiter.Cancel()

	if ml.enabled {
		ml.registry.QuotaRemaining.WithLabelValues(ml.name).Set(float64(ml.limiter.Status().Remaining))
	}
}

// Record applies remote-reported usage.
func (ml *MetricsLimiter) Record(usage Usage) {
	ml.limiter.Record(usage)

	if ml.enabled {
		ml.registry.QuotaRemaining.WithLabelValues(ml.name).Set(float64(ml.limiter.Status().Remaining))
	}
}

// Status reports the window's limit, remaining slots, and reset time.
func (ml *MetricsLimiter) Status() Status {
	status := ml.limiter.Status()

	if ml.enabled {
		ml.registry.QuotaRemaining.WithLabelValues(ml.name).Set(float64(status.Remaining))
	}

	return status
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.enabled = config.Enabled

	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled
}
