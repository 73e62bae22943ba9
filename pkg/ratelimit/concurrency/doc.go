// Package concurrency caps the number of outbound calls in flight.
//
// The limiter is a small counting semaphore with context-aware waiting.
// The request dispatcher uses it to bound how many transport calls run at
// once, independently of the per-window quota:
//
//	inflight, err := concurrency.NewSafe(10)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := inflight.Wait(ctx); err != nil {
//		return err // canceled while waiting for a slot
//	}
//	defer inflight.Release()
//
//	resp, err := transport.Do(req)
//
// TryAcquire is the non-blocking form for callers that prefer to fail fast
// over queueing.
package concurrency
