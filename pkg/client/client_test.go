package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/room-tour/internal/testutil"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when none is running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestClient builds a client against the mock server with millisecond backoffs.
func newTestClient(t *testing.T, baseURL string, redisClient *redis.Client) *Client {
	t.Helper()

	cfg := DefaultConfig(baseURL, redisClient, "room-tour-test/1.0")
	cfg.InitialBackoff = time.Millisecond
	cfg.ThrottleDelay = time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{
			name:   "valid config without redis",
			config: Config{BaseURL: "http://localhost:8080", UserAgent: "tour/1.0"},
		},
		{
			name:     "missing base url",
			config:   Config{UserAgent: "tour/1.0"},
			errorMsg: "base url is required",
		},
		{
			name:     "unsupported scheme",
			config:   Config{BaseURL: "ftp://example.com", UserAgent: "tour/1.0"},
			errorMsg: `base url must be http or https (got "ftp://example.com")`,
		},
		{
			name:     "empty user agent",
			config:   Config{BaseURL: "http://localhost:8080"},
			errorMsg: "user-agent is required",
		},
		{
			name:     "negative attempts",
			config:   Config{BaseURL: "http://localhost:8080", UserAgent: "tour/1.0", MaxAttempts: -1},
			errorMsg: "max_attempts must be >= 0 (got -1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.errorMsg != "" {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client.GetCache() != nil {
				t.Error("cache should be disabled without redis")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("http://localhost:8080", nil, "tour/1.0")

	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent != "tour/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusNotFound, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusServiceUnavailable, ErrorClassServer},
		{http.StatusOK, ""},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestFetchRoom_Success(t *testing.T) {
	mock := testutil.NewMockRoomServer()
	defer mock.Close()

	client := newTestClient(t, mock.URL(), nil)

	record, err := client.FetchRoom(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}

	if record.Name != "West" {
		t.Errorf("Name = %q, want West", record.Name)
	}
	if record.Image != "/static/img/1.jpg" {
		t.Errorf("Image = %q", record.Image)
	}
	if got := mock.Paths(); len(got) != 1 || got[0] != "/room/1" {
		t.Errorf("Paths() = %v, want [/room/1]", got)
	}
	if ua := mock.LastHeader().Get("User-Agent"); ua != "room-tour-test/1.0" {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestFetchRoom_MarkupPassedThrough(t *testing.T) {
	mock := testutil.NewMockRoomServer()
	defer mock.Close()

	mock.SetRoomResponse(2, testutil.NewRoomResponse(room.Record{
		Image:       "a.png",
		Description: "<p>d</p>",
		Name:        "Room A",
	}))

	client := newTestClient(t, mock.URL(), nil)

	record, err := client.FetchRoom(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}
	if record.Description != "<p>d</p>" {
		t.Errorf("Description = %q, want <p>d</p>", record.Description)
	}
}

func TestFetchRoom_Errors(t *testing.T) {
	tests := []struct {
		name          string
		response      testutil.MockRoomResponse
		wantClass     ErrorClass
		wantTransport bool
		wantPayload   bool
		wantAttempts  int
	}{
		{
			name:          "not found is not retried",
			response:      testutil.NewNotFoundResponse(),
			wantClass:     ErrorClassClient,
			wantTransport: true,
			wantAttempts:  1,
		},
		{
			name:          "server error retried then exhausted",
			response:      testutil.NewServerErrorResponse(),
			wantClass:     ErrorClassServer,
			wantTransport: true,
			wantAttempts:  3,
		},
		{
			name:         "malformed json",
			response:     testutil.NewMalformedResponse(),
			wantClass:    ErrorClassPayload,
			wantPayload:  true,
			wantAttempts: 1,
		},
		{
			name: "missing fields",
			response: testutil.NewRoomResponse(room.Record{
				Description: "no name or image",
			}),
			wantClass:    ErrorClassPayload,
			wantPayload:  true,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockRoomServer()
			defer mock.Close()
			mock.SetRoomResponse(4, tt.response)

			client := newTestClient(t, mock.URL(), nil)

			_, err := client.FetchRoom(context.Background(), 4)
			if err == nil {
				t.Fatal("expected error")
			}

			var tourErr *TourError
			if !errors.As(err, &tourErr) {
				t.Fatalf("error %v is not a *TourError", err)
			}
			if tourErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", tourErr.ErrorClass, tt.wantClass)
			}
			if got := errors.Is(err, ErrTransport); got != tt.wantTransport {
				t.Errorf("errors.Is(ErrTransport) = %v, want %v", got, tt.wantTransport)
			}
			if got := errors.Is(err, ErrMalformedPayload); got != tt.wantPayload {
				t.Errorf("errors.Is(ErrMalformedPayload) = %v, want %v", got, tt.wantPayload)
			}
			if got := mock.RequestCount(); got != tt.wantAttempts {
				t.Errorf("RequestCount() = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestFetchRoom_RecoversAfterServerError(t *testing.T) {
	mock := testutil.NewMockRoomServer()
	defer mock.Close()

	var calls atomic.Int32
	mock.SetHandler("/room/6", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"image":"/static/img/6.jpg","description":"hall","name":"North-East"}`))
	})

	client := newTestClient(t, mock.URL(), nil)

	record, err := client.FetchRoom(context.Background(), 6)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}
	if record.Name != "North-East" {
		t.Errorf("Name = %q", record.Name)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestFetchRoom_NetworkError(t *testing.T) {
	mock := testutil.NewMockRoomServer()
	url := mock.URL()
	mock.Close()

	client := newTestClient(t, url, nil)

	_, err := client.FetchRoom(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected retries to be exhausted, got %v", err)
	}
	if classifyError(err) != ErrorClassNetwork {
		t.Errorf("classifyError() = %q, want network", classifyError(err))
	}
}

func TestFetchTour(t *testing.T) {
	notFound := testutil.NewNotFoundResponse()

	tests := []struct {
		name        string
		response    *testutil.MockRoomResponse
		want        room.Tour
		wantClass   ErrorClass
		wantPayload bool
	}{
		{
			name: "default catalog",
			want: room.Tour{Count: 8, Min: 1, Max: 8},
		},
		{
			name: "smaller catalog",
			response: &testutil.MockRoomResponse{
				StatusCode: http.StatusOK,
				Body:       `{"count":3,"min":1,"max":3}`,
			},
			want: room.Tour{Count: 3, Min: 1, Max: 3},
		},
		{
			name: "range disagrees with count",
			response: &testutil.MockRoomResponse{
				StatusCode: http.StatusOK,
				Body:       `{"count":5,"min":1,"max":8}`,
			},
			wantClass:   ErrorClassPayload,
			wantPayload: true,
		},
		{
			name: "not json",
			response: &testutil.MockRoomResponse{
				StatusCode: http.StatusOK,
				Body:       `<html>`,
			},
			wantClass:   ErrorClassPayload,
			wantPayload: true,
		},
		{
			name:      "server without tour size",
			response:  &notFound,
			wantClass: ErrorClassClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockRoomServer()
			defer mock.Close()
			if tt.response != nil {
				mock.SetResponse("/rooms", *tt.response)
			}

			client := newTestClient(t, mock.URL(), nil)

			got, err := client.FetchTour(context.Background())
			if tt.wantClass == "" {
				if err != nil {
					t.Fatalf("FetchTour() error = %v", err)
				}
				if got != tt.want {
					t.Errorf("FetchTour() = %+v, want %+v", got, tt.want)
				}
				return
			}

			var tourErr *TourError
			if !errors.As(err, &tourErr) {
				t.Fatalf("error %v is not a *TourError", err)
			}
			if tourErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", tourErr.ErrorClass, tt.wantClass)
			}
			if got := errors.Is(err, ErrMalformedPayload); got != tt.wantPayload {
				t.Errorf("errors.Is(ErrMalformedPayload) = %v, want %v", got, tt.wantPayload)
			}
		})
	}
}

func TestGet_Caching(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockRoomServer()
	defer mock.Close()

	client := newTestClient(t, mock.URL(), redisClient)
	ctx := context.Background()

	first, err := client.FetchRoom(ctx, 3)
	if err != nil {
		t.Fatalf("first FetchRoom() error = %v", err)
	}

	// Fresh entry: answered from cache without a request
	second, err := client.FetchRoom(ctx, 3)
	if err != nil {
		t.Fatalf("second FetchRoom() error = %v", err)
	}
	if *first != *second {
		t.Errorf("cached record = %+v, want %+v", second, first)
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("RequestCount() = %d, want 1", got)
	}
}

func TestGet_ConditionalRevalidation(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockRoomServer()
	defer mock.Close()

	// max-age=0 makes every entry stale immediately
	mock.SetHandler("/room/5", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=0")
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(`{"image":"/static/img/5.jpg","description":"caves","name":"East"}`))
	})

	client := newTestClient(t, mock.URL(), redisClient)
	ctx := context.Background()

	if _, err := client.FetchRoom(ctx, 5); err != nil {
		t.Fatalf("first FetchRoom() error = %v", err)
	}

	resp, err := client.Get(ctx, "/room/5")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"East"`) {
		t.Errorf("revalidated body = %s", body)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Error("expected response rebuilt from cache")
	}
	if got := mock.ConditionalCount(); got != 1 {
		t.Errorf("ConditionalCount() = %d, want 1", got)
	}
}

func TestDo_BudgetBlocked(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockRoomServer()
	defer mock.Close()
	mock.SetRoomResponse(7, testutil.NewRateLimitResponse())

	client := newTestClient(t, mock.URL(), redisClient)
	ctx := context.Background()

	_, err := client.FetchRoom(ctx, 7)
	if err == nil {
		t.Fatal("expected error for 429")
	}

	// The first 429 recorded a zero budget: later attempts are blocked locally
	if !errors.Is(err, ErrBudgetExhausted) && !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("unexpected error %v", err)
	}
	if classifyError(err) != ErrorClassRateLimit {
		t.Errorf("classifyError() = %q, want rate_limit", classifyError(err))
	}

	before := mock.RequestCount()
	_, err = client.FetchRoom(ctx, 8)
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("expected ErrBudgetExhausted, got %v", err)
	}
	if mock.RequestCount() != before {
		t.Error("blocked request reached the server")
	}
}

func TestDo_BudgetScopedToServer(t *testing.T) {
	redisClient := setupTestRedis(t)
	ctx := context.Background()

	limited := testutil.NewMockRoomServer()
	defer limited.Close()
	limited.SetRoomResponse(7, testutil.NewRateLimitResponse())

	other := testutil.NewMockRoomServer()
	defer other.Close()

	limitedClient := newTestClient(t, limited.URL(), redisClient)
	otherClient := newTestClient(t, other.URL(), redisClient)

	if _, err := limitedClient.FetchRoom(ctx, 7); err == nil {
		t.Fatal("expected error for 429")
	}
	if _, err := limitedClient.FetchRoom(ctx, 1); !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("limited server: expected ErrBudgetExhausted, got %v", err)
	}

	// A second server sharing the Redis keeps its own budget
	record, err := otherClient.FetchRoom(ctx, 1)
	if err != nil {
		t.Fatalf("other server: FetchRoom() error = %v", err)
	}
	if record.Name != "West" {
		t.Errorf("Name = %q, want West", record.Name)
	}
	if other.RequestCount() != 1 {
		t.Errorf("other server RequestCount() = %d, want 1", other.RequestCount())
	}
}
