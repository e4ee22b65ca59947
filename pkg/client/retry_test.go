package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastPolicy keeps the per-class attempt counts with millisecond backoffs.
var fastPolicy = ScaledRetryPolicy(3, time.Millisecond)

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), fastPolicy, func() error {
		attempts++
		return nil
	}, classifyError)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := retryWithBackoff(context.Background(), fastPolicy, func() error {
		attempts++
		if attempts < 3 {
			return &TourError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "unavailable"}
		}
		return nil
	}, classifyError)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	tests := []struct {
		name  string
		class ErrorClass
	}{
		{"server", ErrorClassServer},
		{"rate limit", ErrorClassRateLimit},
		{"network", ErrorClassNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := retryWithBackoff(context.Background(), fastPolicy, func() error {
				attempts++
				return &TourError{ErrorClass: tt.class, Message: "failing"}
			}, classifyError)

			if !errors.Is(err, ErrRetryExhausted) {
				t.Errorf("Expected ErrRetryExhausted, got %v", err)
			}
			if attempts != 3 {
				t.Errorf("Expected 3 attempts, got %d", attempts)
			}

			var tourErr *TourError
			if !errors.As(err, &tourErr) || tourErr.ErrorClass != tt.class {
				t.Errorf("last error not preserved: %v", err)
			}
		})
	}
}

func TestRetryWithBackoff_NonRetriable(t *testing.T) {
	tests := []struct {
		name  string
		class ErrorClass
	}{
		{"client", ErrorClassClient},
		{"payload", ErrorClassPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			want := &TourError{ErrorClass: tt.class, Message: "permanent"}
			err := retryWithBackoff(context.Background(), fastPolicy, func() error {
				attempts++
				return want
			}, classifyError)

			if err != want {
				t.Errorf("Expected the original error, got %v", err)
			}
			if attempts != 1 {
				t.Errorf("Expected 1 attempt, got %d", attempts)
			}
		})
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := retryWithBackoff(ctx, ScaledRetryPolicy(5, time.Second), func() error {
		attempts++
		cancel()
		return &TourError{ErrorClass: ErrorClassServer, Message: "failing"}
	}, classifyError)

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryWithBackoff_ClassChangeRestartsSchedule(t *testing.T) {
	classes := []ErrorClass{ErrorClassServer, ErrorClassServer, ErrorClassNetwork, ErrorClassNetwork}

	attempts := 0
	err := retryWithBackoff(context.Background(), fastPolicy, func() error {
		class := classes[attempts]
		attempts++
		return &TourError{ErrorClass: class, Message: "failing"}
	}, classifyError)

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	// Two server attempts, then the network class runs until attempt 3
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		class          ErrorClass
		initialBackoff time.Duration
		maxBackoff     time.Duration
	}{
		{ErrorClassServer, 500 * time.Millisecond, 5 * time.Second},
		{ErrorClassRateLimit, 2 * time.Second, 30 * time.Second},
		{ErrorClassNetwork, 1 * time.Second, 10 * time.Second},
		{ErrorClassClient, 500 * time.Millisecond, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			cfg := RetryConfigForErrorClass(tt.class)
			if cfg.MaxAttempts != 3 {
				t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
			}
			if cfg.InitialBackoff != tt.initialBackoff {
				t.Errorf("InitialBackoff = %v, want %v", cfg.InitialBackoff, tt.initialBackoff)
			}
			if cfg.MaxBackoff != tt.maxBackoff {
				t.Errorf("MaxBackoff = %v, want %v", cfg.MaxBackoff, tt.maxBackoff)
			}
		})
	}
}

func TestScaledRetryPolicy(t *testing.T) {
	policy := ScaledRetryPolicy(5, 50*time.Millisecond)

	server := policy(ErrorClassServer)
	if server.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", server.MaxAttempts)
	}
	if server.InitialBackoff != 50*time.Millisecond {
		t.Errorf("server InitialBackoff = %v, want 50ms", server.InitialBackoff)
	}

	// Rate limit keeps its 4x ratio to the server class
	rateLimit := policy(ErrorClassRateLimit)
	if rateLimit.InitialBackoff != 200*time.Millisecond {
		t.Errorf("rate limit InitialBackoff = %v, want 200ms", rateLimit.InitialBackoff)
	}

	defaults := ScaledRetryPolicy(0, 0)(ErrorClassNetwork)
	if defaults != RetryConfigForErrorClass(ErrorClassNetwork) {
		t.Errorf("zero overrides changed config: %+v", defaults)
	}
}
