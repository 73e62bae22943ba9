package fixedwindow

import (
	"sync"
	"time"

	"github.com/vnykmshr/apiflow/pkg/common/validation"
)

// Limiter tracks request quota against a fixed window that resets at a clock
// boundary, mirroring how remote APIs account their own quotas. It never
// drops reservations silently: when the window is full it answers with the
// wait until the next reset and leaves the decision to the caller.
type Limiter interface {
	// Reserve attempts to consume one slot in the current window. It does
	// not block; when the window is full the Outcome carries the wait until
	// the window resets.
	Reserve() Outcome

	// Cancel returns one previously granted reservation to the current
	// window. Used when a granted attempt is abandoned before transport,
	// e.g. on caller cancellation, so counters stay accurate.
	Cancel()

	// Record applies usage reported by the remote (typically parsed from
	// rate-limit response headers). Reported values are absolute and
	// override local counting; the remote is the source of truth. An empty
	// Usage is a no-op, so recording the same terminal attempt twice never
	// double-counts.
	Record(usage Usage)

	// Status reports the window's current limit, remaining slots, and
	// reset time.
	Status() Status
}

// Outcome is the answer to a reservation attempt.
type Outcome struct {
	// Allowed reports whether a slot was consumed.
	Allowed bool

	// Wait is how long until the window resets; set only when not allowed.
	Wait time.Duration
}

// Usage carries quota values reported by the remote. Nil fields were not
// reported and leave local state untouched.
type Usage struct {
	Limit     *int
	Remaining *int
	ResetAt   *time.Time
}

// Status is a read-only snapshot of a window.
type Status struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Limit is the maximum number of reservations per window.
	Limit int

	// Window is the duration of one quota window.
	Window time.Duration

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// window implements Limiter as a mutex-guarded fixed-window counter.
type window struct {
	mu          sync.Mutex
	limit       int
	duration    time.Duration
	windowStart time.Time
	count       int
	clock       Clock
}

// NewSafe creates a new fixed-window limiter with validation that returns an
// error instead of panicking. This is the recommended constructor for
// production use.
func NewSafe(limit int, windowDuration time.Duration) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Limit:  limit,
		Window: windowDuration,
		Clock:  SystemClock{},
	})
}

// NewWithConfigSafe creates a new fixed-window limiter from a Config with
// validation that returns an error instead of panicking.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("fixedwindow", "limit", config.Limit); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("fixedwindow", "window", config.Window); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &window{
		limit:       config.Limit,
		duration:    config.Window,
		windowStart: config.Clock.Now(),
		clock:       config.Clock,
	}, nil
}
