// Package ratelimit implements the room server's request budget on both ends.
//
// The server side Limiter counts requests per client in fixed Redis windows and
// reports the remaining budget in X-RateLimit-* response headers. The client side
// Tracker reads those headers back into Redis and gates further requests before
// the budget runs out.
package ratelimit

import (
	"strings"
	"time"
)

// Response headers carrying the request budget.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Redis keys for client side budget state. Trackers bound to an origin
// store them under BudgetKey instead.
const (
	RedisKeyPrefix         = "tour:rate_limit"
	RedisKeyRemaining      = RedisKeyPrefix + ":remaining"
	RedisKeyResetTimestamp = RedisKeyPrefix + ":reset_timestamp"
	RedisKeyLastUpdate     = RedisKeyPrefix + ":last_update"
)

// BudgetKey scopes one of the RedisKey* names to a server origin
// (scheme://host), so servers sharing a Redis keep separate budgets.
//
//	BudgetKey("http://tour.example.com", RedisKeyRemaining)
//	// tour:rate_limit:http://tour.example.com:remaining
func BudgetKey(origin, key string) string {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return key
	}
	return RedisKeyPrefix + ":" + origin + strings.TrimPrefix(key, RedisKeyPrefix)
}

// Thresholds for budget decisions.
const (
	// RemainingThresholdCritical blocks requests when the remaining budget falls below it.
	RemainingThresholdCritical = 2

	// RemainingThresholdWarning throttles requests when the remaining budget falls below it.
	RemainingThresholdWarning = 10

	// RemainingThresholdHealthy marks the budget healthy at or above this value.
	RemainingThresholdHealthy = 30
)

// BudgetState is the last known request budget reported by the room server.
// It is shared across client instances via Redis.
type BudgetState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last refreshed from response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *BudgetState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should be blocked.
// A window that has already reset never blocks.
func (s *BudgetState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *BudgetState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && s.TimeUntilReset() > 0 && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *BudgetState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on Remaining.
func (s *BudgetState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
