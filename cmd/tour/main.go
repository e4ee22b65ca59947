// Command tour browses a room tour from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/room-tour/internal/config"
	"github.com/Sternrassler/room-tour/pkg/client"
	"github.com/Sternrassler/room-tour/pkg/logging"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL   string
	redisURL  string
	verbose   bool
	timeout   time.Duration
	roomCount int

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tour",
	Short: "Browse the Campus North room tour",
	Long: `tour talks to a room server and shows its rooms in the terminal.

Rooms are numbered from 1 and navigation wraps around in both directions.
The number of rooms is asked from the server unless --rooms is given.
Settings come from flags, the environment or a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.ParseLevel(cfg.LogLevel)
		if verbose {
			level = logging.LevelDebug
		}
		logging.Setup(logging.Config{
			Level:   level,
			Pretty:  true,
			Service: "tour",
			Output:  cmd.ErrOrStderr(),
		})
		return nil
	},
}

func init() {
	// .env is optional
	_ = godotenv.Load()
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", cfg.BaseURL, "Room server URL (TOUR_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", cfg.RedisURL, "Redis address or URL for caching (REDIS_URL, empty disables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout for non-interactive commands")
	rootCmd.PersistentFlags().IntVar(&roomCount, "rooms", 0, "Number of rooms in the tour (0 asks the server)")

	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(prefetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds a room client from the global flags. The returned cleanup
// closes the client and its Redis connection.
func newClient(ctx context.Context) (*client.Client, func(), error) {
	var redisClient *redis.Client
	if redisURL != "" {
		opts, err := (&config.Config{RedisURL: redisURL}).RedisOptions()
		if err != nil {
			return nil, nil, err
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
	}

	tourClient, err := client.New(client.DefaultConfig(baseURL, redisClient, cfg.UserAgent))
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	cleanup := func() {
		tourClient.Close()
		if redisClient != nil {
			redisClient.Close()
		}
	}
	return tourClient, cleanup, nil
}

// tourRange returns the room range to navigate. Servers without GET /rooms
// get the default eight-room tour.
func tourRange(ctx context.Context, tourClient *client.Client) room.Tour {
	if roomCount > 0 {
		return room.NewTour(roomCount)
	}

	tour, err := tourClient.FetchTour(ctx)
	if err != nil {
		logger := logging.NewLogger("tour-cli")
		logger.Warn().Err(err).Int("rooms", room.MaxIndex).Msg("tour size unavailable, using default")
		return room.NewTour(room.MaxIndex)
	}
	return tour
}
