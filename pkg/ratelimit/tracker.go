package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultThrottleDelay is the pause applied to each request in the warning range.
const DefaultThrottleDelay = 1 * time.Second

var (
	tourBudgetRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tour_client_budget_remaining",
		Help: "Requests remaining in the room server's current rate limit window",
	})

	tourBudgetBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tour_client_budget_blocks_total",
		Help: "Total number of requests blocked because the budget was nearly exhausted",
	})

	tourBudgetThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tour_client_budget_throttles_total",
		Help: "Total number of requests throttled because the budget was low",
	})
)

// Tracker monitors the room server's request budget and gates requests.
type Tracker struct {
	redis         *redis.Client
	origin        string
	logger        zerolog.Logger
	throttleDelay time.Duration
}

// NewTracker creates a budget tracker for the server at origin (scheme://host).
// An empty origin uses the unscoped RedisKey* names.
func NewTracker(redisClient *redis.Client, origin string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:         redisClient,
		origin:        origin,
		logger:        logger,
		throttleDelay: DefaultThrottleDelay,
	}
}

// SetThrottleDelay changes the pause applied in the warning range.
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttleDelay = d
}

func (t *Tracker) key(name string) string {
	return BudgetKey(t.origin, name)
}

// GetState retrieves the current budget state from Redis.
// Returns a default healthy state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*BudgetState, error) {
	remaining, err := t.redis.Get(ctx, t.key(RedisKeyRemaining)).Int()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No budget state in Redis, assuming healthy")
		return &BudgetState{
			Remaining:  RemainingThresholdHealthy,
			ResetAt:    time.Now(),
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remaining: %w", err)
	}

	resetTimestamp, err := t.redis.Get(ctx, t.key(RedisKeyResetTimestamp)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get reset timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, t.key(RedisKeyLastUpdate)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &BudgetState{
		Remaining:  remaining,
		ResetAt:    time.Unix(resetTimestamp, 0),
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, nil
}

// ParseHeaders extracts a budget state from X-RateLimit-* response headers.
// Returns nil, nil when the response carries no budget headers.
func ParseHeaders(headers http.Header) (*BudgetState, error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return nil, fmt.Errorf("%s header missing", HeaderReset)
	}

	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	now := time.Now()
	state := &BudgetState{
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds) * time.Second),
		LastUpdate: now,
	}
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses budget headers and stores the state in Redis.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, err := ParseHeaders(headers)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, t.key(RedisKeyRemaining), state.Remaining, 0)
	pipe.Set(ctx, t.key(RedisKeyResetTimestamp), state.ResetAt.Unix(), 0)
	pipe.Set(ctx, t.key(RedisKeyLastUpdate), lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store budget state in redis: %w", err)
	}

	tourBudgetRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Request budget critical - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Request budget low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Bool("is_healthy", state.IsHealthy).
			Msg("Request budget updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
// Returns false when the budget is critical; in the warning range it waits
// for the throttle delay first.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get budget state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Request budget critical - blocking request")

		tourBudgetBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.throttleDelay).
			Msg("Request budget low - throttling request")

		tourBudgetThrottlesTotal.Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttleDelay):
		}
	}

	return true, nil
}
