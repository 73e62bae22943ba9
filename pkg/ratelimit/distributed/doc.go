// Package distributed provides a redis-backed quota window shared across
// application instances.
//
// The shared window implements the same fixedwindow.Limiter interface as the
// in-memory window, so it plugs straight into a dispatcher:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//
//	shared, err := distributed.NewSafe(distributed.Config{
//		Redis:           rdb,
//		Key:             "apiflow:render:read",
//		Limit:           400,
//		Window:          time.Minute,
//		FallbackToLocal: true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	d, err := dispatch.NewWithConfigSafe(dispatch.Config{
//		BaseURL:     "https://api.example.com/v1",
//		ReadLimiter: shared,
//	})
//
// # Coordination model
//
// Windows are aligned to clock boundaries: the window containing time t
// starts at t truncated to the window duration, and its redis key embeds
// that start. Every instance derives the same key from its own clock, so
// instances never negotiate window boundaries. Reservation is a single Lua
// check-and-increment, atomic across all instances.
//
// Remote-reported usage (Record) overwrites the shared counter, since the
// remote's accounting covers traffic from every instance by definition.
//
// # Degradation
//
// With FallbackToLocal enabled, redis failures degrade to a per-instance
// in-memory window: rate limiting keeps working, but each instance
// temporarily enforces the full budget alone. Without fallback, redis
// failures deny reservations until the next window boundary.
//
// Redis operations run under an internal timeout (RedisTimeout) so a slow
// or partitioned redis never stalls the dispatch path.
package distributed
