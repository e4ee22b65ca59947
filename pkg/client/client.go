// Package client provides the room server HTTP client with request budget
// tracking, response caching, retries and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/room-tour/pkg/cache"
	"github.com/Sternrassler/room-tour/pkg/ratelimit"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for client operations.
var (
	tourRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_client_requests_total",
		Help: "Total room server requests by endpoint and status",
	}, []string{"endpoint", "status"})

	tourRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tour_client_request_duration_seconds",
		Help:    "Room server request duration in seconds by endpoint",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	tourErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tour_client_errors_total",
		Help: "Total room client errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and budget blocks.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassPayload represents bodies that do not decode to a valid room record.
	ErrorClassPayload ErrorClass = "payload"
)

// Client talks to a room server.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	retryPolicy RetryPolicy
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the room server, e.g. "http://localhost:8080"
	BaseURL string

	// Redis enables the response cache and shared budget tracking (optional)
	Redis *redis.Client

	// User-Agent header
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Retry
	MaxAttempts    int
	InitialBackoff time.Duration

	// ThrottleDelay is the pause applied when the request budget runs low
	ThrottleDelay time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig(baseURL string, redis *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:        baseURL,
		Redis:          redis,
		UserAgent:      userAgent,
		Timeout:        10 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		ThrottleDelay:  ratelimit.DefaultThrottleDelay,
	}
}

// New creates a new room client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("max_attempts must be >= 0 (got %d)", cfg.MaxAttempts)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger := log.With().Str("component", "tour-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		retryPolicy: ScaledRetryPolicy(cfg.MaxAttempts, cfg.InitialBackoff),
		config:      cfg,
		logger:      logger,
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, baseURL.Scheme+"://"+baseURL.Host, logger)
		if cfg.ThrottleDelay > 0 {
			c.rateLimiter.SetThrottleDelay(cfg.ThrottleDelay)
		}
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Do performs an HTTP request with budget tracking, caching, retries and
// error classification. Fresh cache entries are answered without a request;
// stale ones are revalidated with conditional headers.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		tourRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Cache lookup
	var (
		cacheKey    cache.CacheKey
		cachedEntry *cache.CacheEntry
	)
	if c.cache != nil && req.Method == http.MethodGet {
		cacheKey = cache.CacheKey{
			Endpoint:    endpoint,
			QueryParams: req.URL.Query(),
			Origin:      c.baseURL.Scheme + "://" + c.baseURL.Host,
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry

		if cachedEntry != nil && !cachedEntry.IsExpired() {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", cachedEntry.TTL()).
				Dur("age", cachedEntry.Age()).
				Msg("Serving fresh cache entry")
			tourRequestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(cachedEntry), nil
		}
	}

	// Step 2: Check request budget
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Budget check failed")
			return nil, fmt.Errorf("budget check: %w", err)
		}
		if !allowed {
			c.logger.Warn().Str("endpoint", endpoint).Msg("Request blocked by budget tracker")
			tourRequestsTotal.WithLabelValues(endpoint, "budget_blocked").Inc()
			tourErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, &TourError{
				ErrorClass: ErrorClassRateLimit,
				Message:    "request blocked",
				Err:        ErrBudgetExhausted,
			}
		}
	}

	// Step 3: Conditional request for a stale entry
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing room request")

	// Step 4: Execute with retries
	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.retryPolicy, func() error {
		var reqErr error
		resp, reqErr = c.httpClient.Do(req.Clone(ctx))

		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			tourErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			tourRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &TourError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        reqErr,
			}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update budget from headers")
			}
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			tourErrorsTotal.WithLabelValues(string(errClass)).Inc()
			tourRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Room request error")

			if shouldRetry(errClass) {
				resp.Body.Close()
				return &TourError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}

			// Not retriable: hand the response to the caller
			return nil
		}

		tourRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classifyError)

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 5: 304 Not Modified refreshes and serves the cached entry
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		newExpires := cache.ParseExpires(resp.Header)
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}

		resp.Body.Close()
		cachedEntry.Expires = newExpires
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 6: Store successful responses
	if c.cache != nil && resp.StatusCode == http.StatusOK && req.Method == http.MethodGet {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// classifyStatus maps an HTTP error status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyError extracts the class of an error produced by a request attempt.
func classifyError(err error) ErrorClass {
	var tourErr *TourError
	if errors.As(err, &tourErr) {
		return tourErr.ErrorClass
	}
	if err != nil {
		return ErrorClassNetwork
	}
	return ""
}

// Get performs a GET request against the room server.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// FetchRoom retrieves and validates the room at index via GET /room/{index}.
// Failures are *TourError values matching ErrTransport or ErrMalformedPayload.
func (c *Client) FetchRoom(ctx context.Context, index int) (*room.Record, error) {
	path := "/room/" + strconv.Itoa(index)

	resp, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("GET %s: %s", path, resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tourErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	var record room.Record
	if err := json.Unmarshal(body, &record); err != nil {
		tourErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return nil, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassPayload,
			Message:    "decode room",
			Err:        err,
		}
	}

	if err := record.Validate(); err != nil {
		tourErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return nil, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassPayload,
			Message:    "validate room",
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("index", index).
		Str("name", record.Name).
		Msg("Fetched room")

	return &record, nil
}

// FetchTour retrieves the catalog size via GET /rooms.
func (c *Client) FetchTour(ctx context.Context) (room.Tour, error) {
	const path = "/rooms"

	resp, err := c.Get(ctx, path)
	if err != nil {
		return room.Tour{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return room.Tour{}, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("GET %s: %s", path, resp.Status),
		}
	}

	var tour room.Tour
	if err := json.NewDecoder(resp.Body).Decode(&tour); err != nil {
		tourErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return room.Tour{}, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassPayload,
			Message:    "decode tour",
			Err:        err,
		}
	}
	if tour.Count < 1 || tour.Max-tour.Min+1 != tour.Count {
		tourErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
		return room.Tour{}, &TourError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassPayload,
			Message:    fmt.Sprintf("inconsistent tour %d..%d (count %d)", tour.Min, tour.Max, tour.Count),
		}
	}

	return tour, nil
}

// BaseURL returns the configured room server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
