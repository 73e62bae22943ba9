/*
Package fixedwindow provides fixed-window rate limiting for outbound API calls.

A fixed window counts reservations against a quota that resets at a clock
boundary, exactly the way most control-plane APIs account their own quotas.
That deliberate simplicity is the point: a smoother algorithm (token bucket,
sliding window) would drift out of sync with the server's true reset schedule.

Basic usage:

	limiter, _ := fixedwindow.NewSafe(400, time.Minute) // 400 requests/minute

	outcome := limiter.Reserve()
	if !outcome.Allowed {
		// Window full; outcome.Wait is the time until the next reset.
	}

Remote-reported usage:

When the remote API reports quota state in response headers, feed it back so
the window tracks the server rather than local guesses:

	remaining := 17
	limiter.Record(fixedwindow.Usage{Remaining: &remaining})

Reported values are absolute overrides, so recording the same response twice
never double-counts.

State inspection:

	status := limiter.Status()
	// status.Limit, status.Remaining, status.ResetAt

Thread Safety:

All operations are safe for concurrent use. Reservations are serialized under
a single mutex so concurrent callers can never over-commit the window.
*/
package fixedwindow
