/*
Package ratelimit provides quota primitives for calling rate-limited APIs.

This package offers three limiters:

  - fixedwindow: Fixed-window quota counter matching how remote APIs
    account their own limits
  - distributed: Redis-backed fixed window shared across application
    instances
  - concurrency: In-flight cap bounding concurrent outbound calls

The fixed window is the core primitive. Unlike a token bucket, it resets
at a boundary rather than refilling continuously, which mirrors the
windowed accounting that rate-limited APIs report in their response
headers:

	limiter, err := fixedwindow.NewSafe(400, time.Minute)
	if err != nil {
		log.Fatal(err)
	}

	outcome := limiter.Reserve()
	if !outcome.Allowed {
		// Window full; outcome.Wait says when it resets.
	}

Remote-reported usage can be fed back with Record, making the remote's
accounting authoritative over local counting.

The distributed window implements the same Limiter interface on redis, so
several processes can draw from one shared budget. The concurrency limiter
is a small semaphore for bounding calls in flight, independent of quota.

All limiters are safe for concurrent use.
*/
package ratelimit
