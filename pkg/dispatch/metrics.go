package dispatch

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	aferrors "github.com/vnykmshr/apiflow/pkg/common/errors"
	"github.com/vnykmshr/apiflow/pkg/metrics"
)

// NewWithMetrics creates a dispatcher with metrics enabled on a dedicated
// registry.
func NewWithMetrics(baseURL string) (Dispatcher, error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{BaseURL: baseURL}, config)
}

// NewWithConfigAndMetrics creates a dispatcher with custom config and metrics.
// Attempt and retry counters are recorded inside the dispatch loop, so
// metrics are carried by the dispatcher itself rather than a wrapper.
func NewWithConfigAndMetrics(config Config, metricsConfig metrics.Config) (Dispatcher, error) {
	d, err := newDispatcher(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return d, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	d.registry = registry
	d.metricsEnabled = true
	return d, nil
}

// EnableMetrics enables metrics collection.
func (d *dispatcher) EnableMetrics(config metrics.Config) error {
	d.metricsEnabled = config.Enabled

	if config.Registry != nil {
		d.registry = metrics.NewRegistry(config.Registry)
	} else if d.registry == nil {
		d.registry = metrics.DefaultRegistry
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (d *dispatcher) DisableMetrics() {
	d.metricsEnabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (d *dispatcher) MetricsEnabled() bool {
	return d.metricsEnabled
}

func (d *dispatcher) observeAttempt(class OperationClass) {
	if d.metricsEnabled {
		d.registry.DispatchAttempts.WithLabelValues(class.String()).Inc()
	}
}

func (d *dispatcher) observeRetry(class OperationClass) {
	if d.metricsEnabled {
		d.registry.DispatchRetries.WithLabelValues(class.String()).Inc()
	}
}

func (d *dispatcher) observeInflight(class OperationClass, delta float64) {
	if d.metricsEnabled {
		d.registry.DispatchInflight.WithLabelValues(class.String()).Add(delta)
	}
}

func (d *dispatcher) observeRequest(class OperationClass, elapsed time.Duration, err error) {
	if !d.metricsEnabled {
		return
	}

	d.registry.DispatchRequests.WithLabelValues(class.String(), outcomeLabel(err)).Inc()
	d.registry.DispatchDuration.WithLabelValues(class.String()).Observe(elapsed.Seconds())
}

// outcomeLabel maps a final dispatch error to a low-cardinality label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, aferrors.ErrCallerFault):
		return "caller_fault"
	case errors.Is(err, aferrors.ErrRemoteOverload):
		return "overload"
	case errors.Is(err, aferrors.ErrRemoteFault):
		return "remote_fault"
	case errors.Is(err, aferrors.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, aferrors.ErrQuotaExhausted):
		return "quota_exhausted"
	default:
		return "canceled"
	}
}
