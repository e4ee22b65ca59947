package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds prefetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per room fetch
	Timeout time.Duration
}

// DefaultConfig returns the default prefetch configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// RoomFetcher is implemented by the tour client
type RoomFetcher interface {
	FetchRoom(ctx context.Context, index int) (*room.Record, error)
}

// Result holds the outcome of a prefetch
type Result struct {
	// Rooms maps index -> record for successful fetches
	Rooms map[int]*room.Record
	// Failed maps index -> error for failed fetches
	Failed map[int]error
}

// Ordered returns the fetched records in index order, skipping failures.
func (r *Result) Ordered(from, to int) []*room.Record {
	records := make([]*room.Record, 0, len(r.Rooms))
	for i := from; i <= to; i++ {
		if rec, ok := r.Rooms[i]; ok {
			records = append(records, rec)
		}
	}
	return records
}

// Prefetcher fetches ranges of rooms in parallel
type Prefetcher struct {
	fetcher RoomFetcher
	config  Config
}

// NewPrefetcher creates a new prefetcher
func NewPrefetcher(fetcher RoomFetcher, config Config) *Prefetcher {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Prefetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every room in [from, to]. All indexes are attempted even
// when some fail; the result holds what succeeded and the error is the first
// failure seen.
func (p *Prefetcher) FetchAll(ctx context.Context, from, to int) (*Result, error) {
	if to < from {
		return nil, fmt.Errorf("invalid range %d..%d", from, to)
	}

	start := time.Now()
	total := to - from + 1

	log.Info().
		Int("from", from).
		Int("to", to).
		Int("concurrency", p.config.MaxConcurrency).
		Msg("Starting parallel room prefetch")

	result := &Result{
		Rooms:  make(map[int]*room.Record, total),
		Failed: make(map[int]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(p.config.MaxConcurrency)

	for index := from; index <= to; index++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Failed[index] = err
				mu.Unlock()
				return err
			}

			roomCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
			record, err := p.fetcher.FetchRoom(roomCtx, index)
			cancel()

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Warn().
					Err(err).
					Int("index", index).
					Msg("Room fetch failed")
				result.Failed[index] = err
				return fmt.Errorf("room %d: %w", index, err)
			}

			result.Rooms[index] = record
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		log.Warn().
			Err(err).
			Int("fetched", len(result.Rooms)).
			Int("total", total).
			Msg("Prefetch incomplete - returning partial results")
		return result, fmt.Errorf("prefetch (partial data: %d/%d rooms): %w", len(result.Rooms), total, err)
	}

	log.Info().
		Int("rooms", len(result.Rooms)).
		Dur("duration", time.Since(start)).
		Msg("Prefetch complete")

	return result, nil
}
