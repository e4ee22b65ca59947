// Package metrics exposes the Prometheus registry shared by the tour packages.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, navigator, server) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the scrape handler and a reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the tour packages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the counterpart of Registry used for scraping.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics scrape handler for the shared registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Budget Metrics (pkg/ratelimit):
//   - tour_client_budget_remaining (Gauge): Requests remaining in the server's rate limit window
//   - tour_client_budget_blocks_total (Counter): Requests blocked because the budget was nearly exhausted
//   - tour_client_budget_throttles_total (Counter): Requests throttled because the budget was low
//   - tour_server_rate_limited_total (Counter): Requests rejected by the server-side limiter
//
// Cache Metrics (pkg/cache):
//   - tour_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - tour_cache_misses_total (Counter): Cache misses
//   - tour_cache_size_bytes{layer="redis"} (Gauge): Size of the last stored entry
//   - tour_cache_not_modified_total (Counter): 304 Not Modified responses
//   - tour_cache_conditional_requests_total (Counter): Conditional requests sent
//   - tour_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - tour_client_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - tour_client_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - tour_client_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, payload)
//
// Retry Metrics (pkg/client):
//   - tour_client_retries_total{error_class} (Counter): Retry attempts by error class
//   - tour_client_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - tour_client_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Navigator Metrics (pkg/navigator):
//   - tour_navigator_navigations_total{direction} (Counter): Navigations (load, next, prev)
//   - tour_navigator_fetches_in_flight (Gauge): Fetches issued and not yet completed
//   - tour_navigator_stale_discarded_total (Counter): Completions dropped as stale
//   - tour_navigator_render_errors_total{kind} (Counter): Failures surfaced to the status target
//
// Server Metrics (internal/server):
//   - tour_server_requests_total{route, status} (Counter): Requests by route and status
//   - tour_server_request_duration_seconds{route} (Histogram): Handler latency by route
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(tour_cache_hits_total[5m])) /
//   (sum(rate(tour_cache_hits_total[5m])) + sum(rate(tour_cache_misses_total[5m])))
//
//   # Stale Responses per Navigation
//   rate(tour_navigator_stale_discarded_total[5m]) / sum(rate(tour_navigator_navigations_total[5m]))
//
//   # P95 Room Latency
//   histogram_quantile(0.95, rate(tour_client_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(tour_cache_not_modified_total[5m]) / sum(rate(tour_client_requests_total[5m]))
