/*
Package breaker provides a circuit breaker for outbound API calls.

The breaker tracks consecutive infrastructure failures against one remote
endpoint group and suspends traffic once a threshold is crossed, so a failing
remote is not hammered while it recovers. After a cooldown a single probe is
let through; its result decides whether the circuit closes again.

State machine:

	Closed    --(consecutive failures >= threshold)--> Open
	Open      --(recovery timeout elapsed, lazy)-----> HalfOpen
	HalfOpen  --(probe succeeds)---------------------> Closed
	HalfOpen  --(probe fails)------------------------> Open (timer restarts)

The Open to HalfOpen transition is evaluated on the next Allow call rather
than by a background timer, and exactly one caller wins the probe slot even
under concurrency.

Basic usage:

	cb, _ := breaker.NewSafe(5, 30*time.Second)

	if !cb.Allow() {
		return errCircuitOpen // fail fast, no transport call
	}
	err := callRemote()
	if isInfrastructureFailure(err) {
		cb.OnFailure()
	} else {
		cb.OnSuccess()
	}

Only infrastructure failures belong in OnFailure. A 400 or 404 means the
request was wrong, not that the remote is unhealthy.

Every granted Allow must be resolved with exactly one of OnSuccess,
OnFailure, or Cancel. Cancel surrenders an abandoned half-open probe (for
example when the caller is canceled before transport) so the probe slot is
not held forever.
*/
package breaker
