package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"TOUR_HOST", "PORT", "TOUR_ENV", "REDIS_URL", "LOG_LEVEL", "LOG_PRETTY",
		"TOUR_CATALOG", "TOUR_STATIC_DIR", "TOUR_CACHE_MAX_AGE", "TOUR_RATE_LIMIT",
		"TOUR_RATE_WINDOW", "TOUR_BASE_URL", "TOUR_RENDER_MODE", "USER_AGENT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, 120, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "text", cfg.RenderMode)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOUR_HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("TOUR_ENV", "production")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("TOUR_CACHE_MAX_AGE", "90")
	t.Setenv("TOUR_RATE_WINDOW", "30s")
	t.Setenv("TOUR_RATE_LIMIT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 90*time.Second, cfg.CacheMaxAge)
	assert.Equal(t, 30*time.Second, cfg.RateWindow)
	assert.Equal(t, 120, cfg.RateLimit, "invalid values fall back to the default")
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "bare address", url: "localhost:6379", wantAddr: "localhost:6379"},
		{name: "url with db", url: "redis://cache:6380/2", wantAddr: "cache:6380", wantDB: 2},
		{name: "bad scheme", url: "http://cache:6379", wantErr: true},
		{name: "disabled", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RedisURL: tt.url}
			opts, err := cfg.RedisOptions()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opts.Addr)
			assert.Equal(t, tt.wantDB, opts.DB)
		})
	}
}
