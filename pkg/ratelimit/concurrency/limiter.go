package concurrency

import (
	"context"
	"sync"

	"github.com/vnykmshr/apiflow/pkg/common/validation"
)

// Limiter caps the number of outbound calls in flight at once. It is a
// small semaphore: the dispatcher acquires a permit before handing a
// request to transport and releases it when the attempt returns.
type Limiter interface {
	// TryAcquire attempts to take one permit without blocking.
	TryAcquire() bool

	// Wait blocks until a permit is available or the context ends.
	Wait(ctx context.Context) error

	// Release returns one permit. It panics if more permits are released
	// than were acquired.
	Release()

	// Capacity returns the maximum number of calls allowed in flight.
	Capacity() int

	// InUse returns the number of permits currently held.
	InUse() int
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Capacity is the maximum number of concurrent calls allowed.
	Capacity int
}

type inflightLimiter struct {
	mu        sync.Mutex
	capacity  int
	available int
	waiters   []chan struct{}
}

// NewSafe creates a new in-flight limiter with validation that returns an
// error instead of panicking.
func NewSafe(capacity int) (Limiter, error) {
	return NewWithConfigSafe(Config{Capacity: capacity})
}

// NewWithConfigSafe creates a new in-flight limiter from a Config with
// validation that returns an error instead of panicking.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("concurrency", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	return &inflightLimiter{
		capacity:  config.Capacity,
		available: config.Capacity,
	}, nil
}
