package distributed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/apiflow/pkg/ratelimit/fixedwindow"
)

// sharedWindow implements fixedwindow.Limiter on top of redis so multiple
// processes draw from one quota budget. Windows are clock-aligned: every
// instance derives the current window key from the wall clock, so no
// window-start coordination is needed.
type sharedWindow struct {
	config Config
	keys   map[string]string

	// Lua scripts for atomic window operations
	checkAndIncrementScript *redis.Script
	cancelScript            *redis.Script
}

func newSharedWindow(config Config) (fixedwindow.Limiter, error) {
	sw := &sharedWindow{
		config:                  config,
		keys:                    redisKeys(config.Key),
		checkAndIncrementScript: redis.NewScript(luaCheckAndIncrement),
		cancelScript:            redis.NewScript(luaCancel),
	}

	if err := sw.register(); err != nil {
		// Registration is bookkeeping only; with fallback enabled the
		// window still works through the local limiter.
		if !config.FallbackToLocal {
			return nil, fmt.Errorf("distributed: failed to register instance: %w", err)
		}
	}

	return sw, nil
}

// register records this instance and the window parameters for inspection.
func (sw *sharedWindow) register() error {
	ctx, cancel := sw.opContext()
	defer cancel()

	pipe := sw.config.Redis.Pipeline()

	pipe.HSet(ctx, sw.keys["config"], map[string]interface{}{
		"limit":     sw.config.Limit,
		"window_ns": sw.config.Window.Nanoseconds(),
	})
	pipe.Expire(ctx, sw.keys["config"], sw.config.KeyTTL)

	pipe.SAdd(ctx, sw.keys["instances"], sw.config.InstanceID)
	pipe.Expire(ctx, sw.keys["instances"], sw.config.KeyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return &RedisError{"register", err}
	}
	return nil
}

func (sw *sharedWindow) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sw.config.RedisTimeout)
}

// windowStart returns the clock-aligned start of the window containing t.
func (sw *sharedWindow) windowStart(t time.Time) time.Time {
	return t.Truncate(sw.config.Window)
}

// windowKey returns the redis key for the window containing t.
func (sw *sharedWindow) windowKey(t time.Time) string {
	return fmt.Sprintf("%s:window:%d", sw.config.Key, sw.windowStart(t).Unix())
}

// Reserve attempts to consume one slot in the shared window.
func (sw *sharedWindow) Reserve() fixedwindow.Outcome {
	now := sw.config.Clock.Now()

	ctx, cancel := sw.opContext()
	defer cancel()

	ttl := int(sw.config.Window.Seconds()) + 1
	result, err := sw.checkAndIncrementScript.Run(ctx, sw.config.Redis,
		[]string{sw.windowKey(now)},
		sw.config.Limit,
		ttl,
	).Result()

	if err != nil {
		if sw.config.FallbackToLocal && sw.config.Local != nil {
			return sw.config.Local.Reserve()
		}
		// Fail closed: deny until the next window boundary.
		return fixedwindow.Outcome{Wait: sw.windowEnd(now).Sub(now)}
	}

	if allowed, ok := result.(int64); ok && allowed == 1 {
		return fixedwindow.Outcome{Allowed: true}
	}
	return fixedwindow.Outcome{Wait: sw.windowEnd(now).Sub(now)}
}

// Cancel returns one previously granted reservation to the shared window.
func (sw *sharedWindow) Cancel() {
	now := sw.config.Clock.Now()

	ctx, cancel := sw.opContext()
	defer cancel()

	if err := sw.cancelScript.Run(ctx, sw.config.Redis, []string{sw.windowKey(now)}).Err(); err != nil {
		if sw.config.FallbackToLocal && sw.config.Local != nil {
			sw.config.Local.Cancel()
		}
	}
}

// Record applies usage reported by the remote. The remote's remaining count
// is authoritative for every instance, so it overwrites the shared counter.
// Reset times are ignored: windows here are clock-aligned by construction.
func (sw *sharedWindow) Record(usage fixedwindow.Usage) {
	if usage.Remaining == nil && usage.Limit == nil {
		return
	}

	now := sw.config.Clock.Now()

	ctx, cancel := sw.opContext()
	defer cancel()

	limit := sw.config.Limit
	if usage.Limit != nil && *usage.Limit > 0 {
		limit = *usage.Limit
	}

	pipe := sw.config.Redis.Pipeline()

	if usage.Limit != nil && *usage.Limit > 0 {
		pipe.HSet(ctx, sw.keys["config"], "limit", *usage.Limit)
	}
	if usage.Remaining != nil {
		used := limit - *usage.Remaining
		if used < 0 {
			used = 0
		}
		ttl := sw.config.Window + time.Second
		pipe.Set(ctx, sw.windowKey(now), used, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		if sw.config.FallbackToLocal && sw.config.Local != nil {
			sw.config.Local.Record(usage)
		}
	}
}

// Status reports the shared window's limit, remaining slots, and reset time.
func (sw *sharedWindow) Status() fixedwindow.Status {
	now := sw.config.Clock.Now()

	ctx, cancel := sw.opContext()
	defer cancel()

	status := fixedwindow.Status{
		Limit:   sw.config.Limit,
		ResetAt: sw.windowEnd(now),
	}

	pipe := sw.config.Redis.Pipeline()
	limitCmd := pipe.HGet(ctx, sw.keys["config"], "limit")
	countCmd := pipe.Get(ctx, sw.windowKey(now))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		if sw.config.FallbackToLocal && sw.config.Local != nil {
			return sw.config.Local.Status()
		}
		status.Remaining = 0
		return status
	}

	if limit, err := strconv.Atoi(limitCmd.Val()); err == nil && limit > 0 {
		status.Limit = limit
	}

	count, _ := strconv.Atoi(countCmd.Val())
	remaining := status.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	status.Remaining = remaining

	return status
}

func (sw *sharedWindow) windowEnd(t time.Time) time.Time {
	return sw.windowStart(t).Add(sw.config.Window)
}

// luaCheckAndIncrement atomically checks the shared counter against the
// limit and increments it when a slot is free.
const luaCheckAndIncrement = `
-- KEYS[1]: current window key
-- ARGV[1]: limit (max requests per window)
-- ARGV[2]: window TTL (seconds)

local window_key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', window_key) or "0")

if current < limit then
    local new_count = redis.call('INCR', window_key)
    if new_count == 1 then
        redis.call('EXPIRE', window_key, ttl)
    end
    return 1
end

return 0
`

// luaCancel decrements the shared counter without letting it go negative.
const luaCancel = `
-- KEYS[1]: current window key

local window_key = KEYS[1]
local current = tonumber(redis.call('GET', window_key) or "0")

if current > 0 then
    redis.call('DECR', window_key)
end

return current
`
