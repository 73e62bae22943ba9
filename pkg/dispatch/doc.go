// Package dispatch executes outbound API requests behind a stack of local
// guards: per-class quota windows, a circuit breaker, and retries with
// exponential backoff.
//
// A Dispatcher owns two fixed-window quotas (one for reads, one for
// writes), a circuit breaker shared by both classes, and a backoff policy.
// Each call to Do walks the same sequence:
//
//  1. Check the circuit breaker; fail fast with CircuitOpenError when open.
//  2. Reserve a quota slot; absorb short waits, fail fast with
//     QuotaWaitError when the wait exceeds MaxQuotaWait.
//  3. Execute one transport attempt under AttemptTimeout.
//  4. Apply rate-limit response headers to the local window; the remote's
//     accounting always wins over local counting.
//  5. Classify the outcome and either return, fail fast, or back off and
//     retry until MaxAttempts is spent.
//
// Outcomes map to a small error taxonomy, each type unwrapping to a shared
// sentinel so callers can branch with errors.Is:
//
//   - CallerError (4xx other than 429): the request is at fault; never
//     retried and never counted against the breaker.
//   - OverloadError (429 past the retry budget): pushback, retried with
//     Retry-After precedence; counts against the breaker only on
//     exhaustion.
//   - RemoteError (5xx or transport failure past the retry budget): counts
//     against the breaker on every attempt.
//   - CircuitOpenError, QuotaWaitError: local rejections with zero
//     transport attempts.
//
// Context cancellation is honored at every suspension point: quota waits,
// backoff waits, in-flight slots, and the transport call itself.
//
// # Quick Start
//
//	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
//		BaseURL: "https://api.example.com/v1",
//		Header: http.Header{
//			"Authorization": {"Bearer " + token},
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	resp, err := d.Do(ctx, dispatch.Request{
//		Method: http.MethodGet,
//		Path:   "services",
//	})
package dispatch
