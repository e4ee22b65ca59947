// Package server implements the room server: the tour page, room records
// at /room/{index}, static images, health checks and metrics.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Sternrassler/room-tour/internal/config"
	"github.com/Sternrassler/room-tour/pkg/logging"
	"github.com/Sternrassler/room-tour/pkg/ratelimit"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// roomPayload is a pre-encoded room response.
type roomPayload struct {
	body []byte
	etag string
}

// Server owns the router and the HTTP server.
type Server struct {
	cfg     *config.Config
	catalog *room.Catalog
	redis   *redis.Client
	limiter *ratelimit.Limiter
	logger  zerolog.Logger

	rooms        map[int]roomPayload
	cacheControl string

	router *gin.Engine
	http   *http.Server
}

// New creates a server for catalog. redisClient is optional; without it the
// rate limiter is disabled and /ready only reports the catalog.
func New(cfg *config.Config, catalog *room.Catalog, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}

	s := &Server{
		cfg:          cfg,
		catalog:      catalog,
		redis:        redisClient,
		logger:       logging.NewLogger("room-server"),
		rooms:        make(map[int]roomPayload, catalog.Len()),
		cacheControl: fmt.Sprintf("public, max-age=%d", int(cfg.CacheMaxAge.Seconds())),
	}

	// Room bodies never change at runtime: encode them and their validators once
	for i := 1; i <= catalog.Len(); i++ {
		record, err := catalog.Get(i)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encode room %d: %w", i, err)
		}
		sum := sha256.Sum256(body)
		s.rooms[i] = roomPayload{
			body: body,
			etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
		}
	}

	if redisClient != nil && cfg.RateLimit > 0 {
		limiter, err := ratelimit.NewLimiter(redisClient, cfg.RateLimit, cfg.RateWindow, s.logger)
		if err != nil {
			return nil, fmt.Errorf("create rate limiter: %w", err)
		}
		s.limiter = limiter
	}

	s.setupRouter()

	s.http = &http.Server{
		Addr:     cfg.Addr(),
		Handler:  s.router,
		ErrorLog: logging.StdErrorLogger(s.logger),
	}

	s.logger.Info().
		Int("rooms", catalog.Len()).
		Bool("rate_limit", s.limiter != nil).
		Msg("server initialized")
	return s, nil
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(logging.GinLogger(s.logger))
	s.router.Use(metricsMiddleware())

	// Security headers (production only)
	if !s.cfg.IsDevelopment() {
		s.router.Use(securityHeadersMiddleware())
	}

	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics", // promhttp negotiates its own encoding
	})))

	s.router.SetTrustedProxies(nil)

	// Tour page
	s.router.SetHTMLTemplate(indexTemplate)
	s.router.GET("/", s.handleIndex)
	s.router.GET("/index.html", s.handleIndex)
	s.router.GET("/tour.js", s.handleScript)

	// Room records
	rooms := s.router.Group("/room")
	if s.limiter != nil {
		rooms.Use(rateLimitMiddleware(s.limiter, s.logger))
	}
	rooms.GET("/:id", s.handleRoom)
	s.router.GET("/rooms", s.handleTour)

	// Images
	static := s.router.Group("/static")
	static.Use(cacheControlMiddleware("public, max-age=86400"))
	static.StaticFS("/", gin.Dir(s.cfg.StaticDir, false))

	// Operations
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)
	s.router.GET("/metrics", gin.WrapH(metricsHandler()))
}

// Start starts the HTTP server (blocks until Shutdown).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("http server shutdown error")
		return err
	}

	s.logger.Info().Msg("server shutdown complete")
	return nil
}

// Router returns the HTTP handler.
func (s *Server) Router() *gin.Engine { return s.router }
