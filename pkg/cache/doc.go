// Package cache provides a Redis-backed response cache for the room endpoint,
// with ETag and Last-Modified support for conditional requests.
//
// The room server marks every /room/{index} response with an ETag and a
// Cache-Control max-age. The client stores the body under a deterministic key
// and, once the entry is stale, revalidates it with If-None-Match instead of
// downloading the record again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{Endpoint: "/room/3"}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the room server
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Metrics
//
//   - tour_cache_hits_total{layer="redis"}
//   - tour_cache_misses_total
//   - tour_cache_size_bytes{layer="redis"}
//   - tour_cache_not_modified_total
//   - tour_cache_conditional_requests_total
//   - tour_cache_errors_total{operation}
package cache
