// Package testutil provides testing utilities for the room tour packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/room-tour/pkg/room"
)

// MockRoomResponse defines the behavior for a mock room endpoint response.
type MockRoomResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockRoomServer is a configurable mock room server for testing.
// Unconfigured /room/{index} paths are answered from the default catalog.
type MockRoomServer struct {
	server   *httptest.Server
	catalog  *room.Catalog
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount     int
	conditionalCount int
	paths            []string
	lastHeader       http.Header
}

// NewMockRoomServer creates a new mock room server.
func NewMockRoomServer() *MockRoomServer {
	mock := &MockRoomServer{
		catalog:  room.DefaultCatalog(),
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.paths = append(mock.paths, r.URL.Path)
		mock.lastHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockRoomServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRoomServer) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockRoomServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.paths = nil
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockRoomServer) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockRoomServer) SetResponse(path string, resp MockRoomResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetRoomResponse configures the response for /room/{index}.
func (m *MockRoomServer) SetRoomResponse(index int, resp MockRoomResponse) {
	m.SetResponse(fmt.Sprintf("/room/%d", index), resp)
}

// RequestCount returns the number of requests made to the server.
func (m *MockRoomServer) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockRoomServer) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Paths returns the request paths in arrival order.
func (m *MockRoomServer) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// LastHeader returns the headers of the most recent request.
func (m *MockRoomServer) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// defaultHandler serves the tour size and catalog rooms with validators and a
// short max-age.
func (m *MockRoomServer) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/rooms" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(room.NewTour(m.catalog.Len()))
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/room/")
	if idStr == r.URL.Path {
		http.NotFound(w, r)
		return
	}

	index, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, `{"error":"invalid room index"}`, http.StatusBadRequest)
		return
	}

	record, err := m.catalog.Get(index)
	if err != nil {
		http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"room-%d"`, index)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "max-age=60")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(record)
}

// NewRoomResponse creates a 200 OK response carrying the record.
func NewRoomResponse(record room.Record) MockRoomResponse {
	body, _ := json.Marshal(record)
	return MockRoomResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type":  "application/json; charset=utf-8",
			"Cache-Control": "no-cache",
		},
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not a room record.
func NewMalformedResponse() MockRoomResponse {
	return MockRoomResponse{
		StatusCode: http.StatusOK,
		Body:       `{"image": 42`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockRoomResponse {
	return MockRoomResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "room not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockRoomResponse {
	return MockRoomResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 response with an exhausted budget.
func NewRateLimitResponse() MockRoomResponse {
	return MockRoomResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}
