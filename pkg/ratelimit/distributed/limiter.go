package distributed

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/apiflow/pkg/common/validation"
	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// Config holds configuration for a redis-backed shared quota window.
type Config struct {
	// Redis client used for coordination.
	Redis redis.UniversalClient

	// Key is the redis key prefix for this window.
	Key string

	// Limit is the shared quota per window across all instances.
	Limit int

	// Window is the quota window duration. Windows are aligned to clock
	// boundaries (now truncated to Window) so every instance agrees on
	// the current window without coordination.
	Window time.Duration

	// InstanceID uniquely identifies this application instance. Generated
	// when empty.
	InstanceID string

	// FallbackToLocal degrades to an in-memory window when redis is
	// unreachable. Without it, reservations are denied until the next
	// window boundary whenever redis fails.
	FallbackToLocal bool

	// Local is the in-memory window used during fallback. Built from
	// Limit and Window when nil and FallbackToLocal is set.
	Local fixedwindow.Limiter

	// RedisTimeout bounds each redis operation (defaults to 500ms).
	RedisTimeout time.Duration

	// KeyTTL is how long bookkeeping keys live (defaults to 1 hour).
	// Window counter keys expire on their own shortly after the window
	// ends.
	KeyTTL time.Duration

	// Clock provides the current time. If nil, the system clock is used.
	Clock fixedwindow.Clock
}

// DefaultConfig returns a default shared window configuration.
func DefaultConfig() Config {
	return Config{
		InstanceID:      generateInstanceID(),
		FallbackToLocal: true,
		RedisTimeout:    500 * time.Millisecond,
		KeyTTL:          time.Hour,
	}
}

// NewSafe creates a redis-backed quota window implementing
// fixedwindow.Limiter, with validation that returns an error instead of
// panicking. Multiple processes sharing the same Key draw from one budget.
func NewSafe(config Config) (fixedwindow.Limiter, error) {
	if err := validation.ValidateNotNil("distributed", "redis", config.Redis); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("distributed", "key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("distributed", "limit", config.Limit); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("distributed", "window", config.Window); err != nil {
		return nil, err
	}

	config = applyConfigDefaults(config)

	if config.FallbackToLocal && config.Local == nil {
		local, err := fixedwindow.NewWithConfigSafe(fixedwindow.Config{
			Limit:  config.Limit,
			Window: config.Window,
			Clock:  config.Clock,
		})
		if err != nil {
			return nil, err
		}
		config.Local = local
	}

	return newSharedWindow(config)
}

func applyConfigDefaults(config Config) Config {
	if config.InstanceID == "" {
		config.InstanceID = generateInstanceID()
	}
	if config.RedisTimeout <= 0 {
		config.RedisTimeout = 500 * time.Millisecond
	}
	if config.KeyTTL <= 0 {
		config.KeyTTL = time.Hour
	}
	if config.Clock == nil {
		config.Clock = fixedwindow.SystemClock{}
	}
	return config
}

// RedisError represents a failed redis operation.
type RedisError struct {
	Operation string
	Err       error
}

func (e *RedisError) Error() string {
	return "distributed: redis " + e.Operation + " failed: " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
