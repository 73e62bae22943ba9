package concurrency

import (
	"context"
)

// TryAcquire attempts to take one permit without blocking.
func (il *inflightLimiter) TryAcquire() bool {
	il.mu.Lock()
	defer il.mu.Unlock()

	if il.available > 0 {
		il.available--
		return true
	}
	return false
}

// Wait blocks until a permit is available or the context ends.
func (il *inflightLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	il.mu.Lock()

	if il.available > 0 {
		il.available--
		il.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	il.waiters = append(il.waiters, ready)
	il.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		il.abandon(ready)
		return ctx.Err()
	}
}

// Release returns one permit, handing it directly to the oldest waiter
// when one exists. Handoff and queue changes happen under the mutex, so a
// closed ready channel always means the waiter owns a permit.
func (il *inflightLimiter) Release() {
	il.mu.Lock()
	defer il.mu.Unlock()
	il.release()
}

// Capacity returns the maximum number of calls allowed in flight.
func (il *inflightLimiter) Capacity() int {
	il.mu.Lock()
	defer il.mu.Unlock()
	return il.capacity
}

// InUse returns the number of permits currently held.
func (il *inflightLimiter) InUse() int {
	il.mu.Lock()
	defer il.mu.Unlock()
	return il.capacity - il.available
}

// abandon resolves a canceled wait: either the waiter is still queued and
// is removed, or Release already handed it a permit, which is put back.
func (il *inflightLimiter) abandon(ready chan struct{}) {
	il.mu.Lock()
	defer il.mu.Unlock()

	for i, w := range il.waiters {
		if w == ready {
			il.waiters = append(il.waiters[:i], il.waiters[i+1:]...)
			return
		}
	}
	il.release()
}

// release puts one permit back. Must be called with il.mu held.
func (il *inflightLimiter) release() {
	if len(il.waiters) > 0 {
		ready := il.waiters[0]
		il.waiters = il.waiters[1:]
		close(ready)
		return
	}

	if il.available >= il.capacity {
		panic("concurrency: released more permits than acquired")
	}
	il.available++
}
