// Package navigator implements the tour's page navigator: a cyclic page
// index, one asynchronous room fetch per navigation and rendering of the
// result into a Renderer.
//
// Usage:
//
//	nav, err := navigator.New(client, renderer, navigator.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer nav.Close()
//
//	nav.OnLoad(ctx)  // renders room 1
//	nav.OnNext(ctx)  // renders room 2
//	nav.OnPrev(ctx)  // renders room 1 again
//	nav.Wait()
//
// Handlers return immediately; fetches complete in the background. With the
// default DiscardStale policy only the most recently issued fetch is rendered.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/room-tour/pkg/client"
	"github.com/Sternrassler/room-tour/pkg/pagination"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by handlers called after Close.
var ErrClosed = errors.New("navigator closed")

// Fetcher retrieves a room record by index. *client.Client implements it.
type Fetcher interface {
	FetchRoom(ctx context.Context, index int) (*room.Record, error)
}

// Renderer receives fetch results.
type Renderer interface {
	// RenderRoom writes a fetched record into the render targets.
	RenderRoom(index int, record *room.Record) error

	// RenderError surfaces a failed fetch or render.
	RenderError(index int, err error)
}

// StalePolicy decides what happens to a fetch that completes after a newer
// navigation was issued.
type StalePolicy int

const (
	// DiscardStale renders a completion only if it belongs to the latest navigation.
	DiscardStale StalePolicy = iota

	// LastCompletedWins renders every completion in arrival order.
	LastCompletedWins
)

// String returns the policy name.
func (p StalePolicy) String() string {
	switch p {
	case DiscardStale:
		return "discard_stale"
	case LastCompletedWins:
		return "last_completed_wins"
	default:
		return fmt.Sprintf("StalePolicy(%d)", int(p))
	}
}

// Config holds the navigator configuration.
type Config struct {
	// Min and Max bound the page index (inclusive)
	Min int
	Max int

	// StalePolicy for overlapping fetches
	StalePolicy StalePolicy

	// CancelInFlight cancels the previous fetch when a new navigation starts
	CancelInFlight bool

	// LegacyPrev makes OnPrev step forward like OnNext
	LegacyPrev bool

	// FetchTimeout bounds each fetch (0 = no timeout beyond the caller's context)
	FetchTimeout time.Duration

	// Prefetch settings used by Warm
	WarmConcurrency int
}

// DefaultConfig returns a configuration for the eight-room tour.
func DefaultConfig() Config {
	return Config{
		Min:             room.MinIndex,
		Max:             room.MaxIndex,
		StalePolicy:     DiscardStale,
		FetchTimeout:    15 * time.Second,
		WarmConcurrency: 4,
	}
}

// Navigator owns the page index and coordinates fetches and rendering.
type Navigator struct {
	fetcher  Fetcher
	renderer Renderer
	config   Config
	logger   zerolog.Logger

	mu       sync.Mutex
	index    int
	seq      uint64
	inflight map[uint64]context.CancelFunc
	closed   bool

	wg sync.WaitGroup
}

// New creates a navigator positioned at Config.Min.
func New(fetcher Fetcher, renderer Renderer, cfg Config) (*Navigator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if cfg.Max < cfg.Min {
		return nil, fmt.Errorf("max must be >= min (got min=%d max=%d)", cfg.Min, cfg.Max)
	}

	return &Navigator{
		fetcher:  fetcher,
		renderer: renderer,
		config:   cfg,
		logger:   log.With().Str("component", "navigator").Logger(),
		index:    cfg.Min,
		inflight: make(map[uint64]context.CancelFunc),
	}, nil
}

// OnLoad resets the index to the first room and fetches it.
func (n *Navigator) OnLoad(ctx context.Context) (int, error) {
	return n.navigate(ctx, "load", func(int) int { return n.config.Min })
}

// OnNext advances one room, wrapping from the last to the first.
func (n *Navigator) OnNext(ctx context.Context) (int, error) {
	return n.navigate(ctx, "next", func(i int) int {
		return Wrap(i, 1, n.config.Min, n.config.Max)
	})
}

// OnPrev steps back one room, wrapping from the first to the last.
// With LegacyPrev it steps forward instead.
func (n *Navigator) OnPrev(ctx context.Context) (int, error) {
	delta := -1
	if n.config.LegacyPrev {
		delta = 1
	}
	return n.navigate(ctx, "prev", func(i int) int {
		return Wrap(i, delta, n.config.Min, n.config.Max)
	})
}

// Index returns the current page index.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Wait blocks until every issued fetch has completed.
func (n *Navigator) Wait() {
	n.wg.Wait()
}

// Close cancels in-flight fetches and waits for them to finish.
// Handlers called afterwards return ErrClosed.
func (n *Navigator) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	for _, cancel := range n.inflight {
		cancel()
	}
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}

// Warm fetches every room of the tour concurrently so later navigations are
// served from the fetcher's cache. Nothing is rendered.
func (n *Navigator) Warm(ctx context.Context) (int, error) {
	prefetcher := pagination.NewPrefetcher(n.fetcher, pagination.Config{
		MaxConcurrency: n.config.WarmConcurrency,
		Timeout:        n.config.FetchTimeout,
	})

	result, err := prefetcher.FetchAll(ctx, n.config.Min, n.config.Max)
	warmed := 0
	if result != nil {
		warmed = len(result.Rooms)
	}

	n.logger.Debug().
		Int("warmed", warmed).
		Err(err).
		Msg("Tour warm-up finished")

	return warmed, err
}

// navigate applies step to the index and issues one fetch for the result.
func (n *Navigator) navigate(ctx context.Context, direction string, step func(int) int) (int, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return 0, ErrClosed
	}

	n.index = step(n.index)
	index := n.index

	if n.config.CancelInFlight {
		for seq, cancel := range n.inflight {
			cancel()
			delete(n.inflight, seq)
		}
	}

	n.seq++
	seq := n.seq

	fetchCtx, cancel := context.WithCancel(ctx)
	if n.config.FetchTimeout > 0 {
		var timeoutCancel context.CancelFunc
		fetchCtx, timeoutCancel = context.WithTimeout(fetchCtx, n.config.FetchTimeout)
		parentCancel := cancel
		cancel = func() {
			timeoutCancel()
			parentCancel()
		}
	}
	n.inflight[seq] = cancel
	n.wg.Add(1)
	n.mu.Unlock()

	navigationsTotal.WithLabelValues(direction).Inc()
	n.logger.Debug().
		Str("direction", direction).
		Int("index", index).
		Uint64("seq", seq).
		Msg("Navigating")

	fetchesInFlight.Inc()
	go n.fetchRoom(fetchCtx, cancel, seq, index)

	return index, nil
}

// fetchRoom runs one fetch and hands the outcome to complete.
func (n *Navigator) fetchRoom(ctx context.Context, cancel context.CancelFunc, seq uint64, index int) {
	defer n.wg.Done()
	defer fetchesInFlight.Dec()

	record, err := n.fetcher.FetchRoom(ctx, index)
	cancel()

	n.complete(seq, index, record, err)
}

// complete renders a finished fetch unless the stale policy drops it.
// The check and the render happen under the lock so a newer navigation
// cannot interleave between them.
func (n *Navigator) complete(seq uint64, index int, record *room.Record, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.inflight, seq)
	stale := seq != n.seq

	if stale && (n.config.StalePolicy == DiscardStale || n.closed || isCancellation(err)) {
		staleDiscardedTotal.Inc()
		n.logger.Debug().
			Int("index", index).
			Uint64("seq", seq).
			Uint64("latest", n.seq).
			Msg("Discarding stale room response")
		return
	}

	if err != nil {
		if n.closed && isCancellation(err) {
			return
		}
		kind := ErrorKind(err)
		renderErrorsTotal.WithLabelValues(kind).Inc()
		n.logger.Error().
			Err(err).
			Int("index", index).
			Str("kind", kind).
			Msg("Room fetch failed")
		n.renderer.RenderError(index, err)
		return
	}

	if rerr := n.renderer.RenderRoom(index, record); rerr != nil {
		renderErrorsTotal.WithLabelValues("render").Inc()
		n.logger.Error().
			Err(rerr).
			Int("index", index).
			Msg("Room render failed")
		n.renderer.RenderError(index, rerr)
		return
	}

	n.logger.Debug().
		Int("index", index).
		Str("name", record.Name).
		Msg("Rendered room")
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, client.ErrContextCancelled)
}

// ErrorKind labels a fetch failure for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, client.ErrMalformedPayload), errors.Is(err, room.ErrInvalidRecord):
		return "payload"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
