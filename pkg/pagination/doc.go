// Package pagination fetches a range of tour rooms in parallel.
//
// The tour is a small fixed set of pages, so a prefetch simply issues one
// request per index with bounded concurrency and collects what succeeded.
// With a caching client this warms the cache so later navigation is served
// without waiting on the network.
//
// Example usage:
//
//	config := pagination.DefaultConfig()
//	prefetcher := pagination.NewPrefetcher(tourClient, config)
//	result, err := prefetcher.FetchAll(ctx, room.MinIndex, room.MaxIndex)
//
// The prefetcher:
//   - Runs at most MaxConcurrency fetches at once (errgroup limit)
//   - Bounds each fetch with its own timeout
//   - Keeps going after a failure and returns partial results
//   - Reports the first error it saw
package pagination
