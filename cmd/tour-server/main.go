// Command tour-server serves the room tour: the tour page, room records at
// /room/{index}, static images, health checks and metrics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/room-tour/internal/config"
	"github.com/Sternrassler/room-tour/internal/server"
	"github.com/Sternrassler/room-tour/pkg/logging"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	cfg := config.Load()

	logging.Setup(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Service: "tour-server",
		Output:  os.Stderr,
	})
	logger := logging.NewLogger("tour-server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	logger.Info().Int("rooms", catalog.Len()).Str("source", catalogSource(cfg)).Msg("catalog loaded")

	redisClient, err := connectRedis(cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.New(cfg, catalog, redisClient)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

// loadCatalog reads TOUR_CATALOG or falls back to the built-in tour.
func loadCatalog(cfg *config.Config) (*room.Catalog, error) {
	if cfg.CatalogPath == "" {
		return room.DefaultCatalog(), nil
	}
	return room.LoadCatalog(cfg.CatalogPath)
}

func catalogSource(cfg *config.Config) string {
	if cfg.CatalogPath == "" {
		return "built-in"
	}
	return cfg.CatalogPath
}

// connectRedis returns nil when REDIS_URL is unset.
func connectRedis(cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.Info().Msg("REDIS_URL not set - rate limiting disabled")
		return nil, nil
	}

	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info().Str("addr", opts.Addr).Msg("connected to redis")
	return client, nil
}
