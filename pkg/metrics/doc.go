// Package metrics provides Prometheus instrumentation for apiflow components.
//
// The metrics package provides automatic instrumentation for:
//   - Quota windows (reservations, grants, waits, remaining capacity)
//   - Circuit breakers (state, failures, rejections, transitions)
//   - The request dispatcher (attempts, retries, outcomes, latency)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	limiter := fixedwindow.NewWithMetrics(400, time.Minute, "render_read")
//	cb := breaker.NewWithMetrics(5, 30*time.Second, "render_api")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//
//	limiter := fixedwindow.NewWithConfigAndMetrics(
//		fixedwindow.Config{Limit: 400, Window: time.Minute},
//		"render_read",
//		config,
//	)
//
// # Available Metrics
//
// Quota metrics:
//
//   - apiflow_quota_reservations_total: Total quota reservation attempts
//   - apiflow_quota_allowed_total: Reservations granted immediately
//   - apiflow_quota_delayed_total: Reservations answered with a wait
//   - apiflow_quota_wait_duration_seconds: Waits handed to callers
//   - apiflow_quota_remaining: Requests remaining in the current window
//
// Circuit breaker metrics:
//
//   - apiflow_breaker_state: Current state (0 closed, 1 open, 2 half-open)
//   - apiflow_breaker_failures_total: Infrastructure failures recorded
//   - apiflow_breaker_rejected_total: Calls rejected while open
//   - apiflow_breaker_transitions_total: State transitions by target state
//
// Dispatch metrics:
//
//   - apiflow_dispatch_requests_total: Requests by operation class and outcome
//   - apiflow_dispatch_attempts_total: Transport attempts by class
//   - apiflow_dispatch_retries_total: Retried attempts by class
//   - apiflow_dispatch_request_duration_seconds: End-to-end latency
//   - apiflow_dispatch_inflight: Requests currently in flight
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	limiter.DisableMetrics()
//	limiter.EnableMetrics(config)
//	enabled := limiter.MetricsEnabled()
//
// Metrics collection has no background goroutines; values are updated only
// when operations occur.
package metrics
