package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var tourLimiterRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tour_server_rate_limited_total",
	Help: "Total number of requests rejected by the room server's rate limiter",
})

// Decision is the outcome of a Limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// SetHeaders writes the X-RateLimit-* headers for the decision.
func (d Decision) SetHeaders(h http.Header) {
	h.Set(HeaderLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	h.Set(HeaderReset, strconv.Itoa(int((d.ResetIn+time.Second-1)/time.Second)))
}

// Limiter enforces a fixed-window request budget per client key.
type Limiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter allowing limit requests per window.
func NewLimiter(redisClient *redis.Client, limit int, window time.Duration, logger zerolog.Logger) (*Limiter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0 (got %d)", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be > 0 (got %s)", window)
	}

	return &Limiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}, nil
}

// windowKey returns the Redis key of the window containing now.
func (l *Limiter) windowKey(clientKey string, windowStart time.Time) string {
	return fmt.Sprintf("tour:limiter:%s:%d", clientKey, windowStart.Unix())
}

// Allow counts one request for clientKey and reports whether it fits the budget.
func (l *Limiter) Allow(ctx context.Context, clientKey string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	key := l.windowKey(clientKey, windowStart)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("count request: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	decision := Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   windowStart.Add(l.window).Sub(now),
	}

	if !decision.Allowed {
		tourLimiterRejectedTotal.Inc()
		l.logger.Warn().
			Str("client", clientKey).
			Int("count", count).
			Dur("reset_in", decision.ResetIn).
			Msg("Request budget exhausted")
	}

	return decision, nil
}
