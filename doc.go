/*
Package apiflow provides resilience primitives for calling rate-limited
remote control-plane APIs: quota tracking, circuit breaking, backoff, and a
dispatcher that composes them around each outbound request.

Rate Limiting (pkg/ratelimit):
  - fixedwindow: Fixed-window quota counter that mirrors server-side resets
  - distributed: Multi-instance quota sharing with Redis
  - concurrency: Cap on concurrent in-flight requests

Failure Handling:
  - breaker: Circuit breaker with lazy half-open probing
  - backoff: Exponential backoff with Retry-After hint support

Orchestration:
  - dispatch: Retry loop wiring quotas, breaker, and backoff around a transport
  - monitor: Interval and cron-based sampling of client health

Example usage:

	import "github.com/vnykmshr/apiflow/pkg/dispatch"

	client, _ := dispatch.NewWithConfigSafe(dispatch.Config{
		BaseURL:    "https://api.render.com/v1",
		ReadLimit:  400,
		WriteLimit: 30,
		Window:     time.Minute,
	})

	resp, err := client.Do(ctx, dispatch.Request{Method: "GET", Path: "/services"})
*/
package apiflow
