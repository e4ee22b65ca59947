package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/room-tour/internal/config"
	"github.com/Sternrassler/room-tour/internal/server"
	"github.com/Sternrassler/room-tour/pkg/logging"
	"github.com/gin-gonic/gin"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisURL starts a Redis container and returns its address.
func setupRedisURL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available for Redis container: %v", err)
	}
	t.Cleanup(func() { redisC.Terminate(ctx) })

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return host + ":" + port.Port()
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Host:        "127.0.0.1",
		Env:         "development",
		StaticDir:   t.TempDir(),
		CacheMaxAge: time.Minute,
		RateLimit:   100,
		RateWindow:  time.Minute,
	}
}

func TestLoadCatalog(t *testing.T) {
	cfg := testConfig(t)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		t.Fatalf("loadCatalog() error = %v", err)
	}
	if catalog.Len() != 8 {
		t.Errorf("built-in catalog has %d rooms, want 8", catalog.Len())
	}
	if catalogSource(cfg) != "built-in" {
		t.Errorf("catalogSource() = %q", catalogSource(cfg))
	}

	path := filepath.Join(t.TempDir(), "rooms.yaml")
	if err := os.WriteFile(path, []byte("rooms:\n  - name: Lobby\n    description: Front desk\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.CatalogPath = path

	catalog, err = loadCatalog(cfg)
	if err != nil {
		t.Fatalf("loadCatalog(file) error = %v", err)
	}
	if catalog.Len() != 1 {
		t.Errorf("file catalog has %d rooms, want 1", catalog.Len())
	}

	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadCatalog(cfg); err == nil {
		t.Error("expected error for missing catalog file")
	}
}

func TestConnectRedis_Disabled(t *testing.T) {
	client, err := connectRedis(testConfig(t), logging.NewLogger("test"))
	if err != nil {
		t.Fatalf("connectRedis() error = %v", err)
	}
	if client != nil {
		t.Error("expected nil client without REDIS_URL")
	}
}

func TestConnectRedis_Unreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "127.0.0.1:1"

	if _, err := connectRedis(cfg, logging.NewLogger("test")); err == nil {
		t.Error("expected error for unreachable redis")
	}
}

func TestServerWithRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	cfg.RedisURL = setupRedisURL(t)
	cfg.RateLimit = 2

	redisClient, err := connectRedis(cfg, logging.NewLogger("test"))
	if err != nil {
		t.Fatalf("connectRedis() error = %v", err)
	}
	defer redisClient.Close()

	catalog, _ := loadCatalog(cfg)
	srv, err := server.New(cfg, catalog, redisClient)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"redis":"ok"`) {
			t.Errorf("Expected redis check, got %s", w.Body.String())
		}
	})

	t.Run("rate_limited", func(t *testing.T) {
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/room/1", nil))
			codes = append(codes, w.Code)
		}

		if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
			t.Errorf("status codes = %v, want [200 200 429]", codes)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

		body, _ := io.ReadAll(w.Body)
		bodyStr := string(body)

		if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
			t.Error("Expected Prometheus format metrics output")
		}
		if !strings.Contains(bodyStr, "tour_server_rate_limited_total 1") {
			t.Error("Expected one rate limited request in metrics")
		}
	})
}
