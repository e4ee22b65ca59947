package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/room-tour/pkg/pagination"
	"github.com/Sternrassler/room-tour/pkg/room"
	"github.com/spf13/cobra"
)

var (
	prefetchFrom        int
	prefetchTo          int
	prefetchConcurrency int
)

var prefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Fetch every room in parallel",
	Long: `Fetches a range of rooms concurrently and reports which succeeded.
With --redis this fills the response cache for later browsing.`,
	Args: cobra.NoArgs,
	RunE: runPrefetch,
}

func init() {
	prefetchCmd.Flags().IntVar(&prefetchFrom, "from", room.MinIndex, "First room index")
	prefetchCmd.Flags().IntVar(&prefetchTo, "to", 0, "Last room index (0 for the last room of the tour)")
	prefetchCmd.Flags().IntVarP(&prefetchConcurrency, "concurrency", "c", pagination.DefaultConfig().MaxConcurrency, "Parallel requests")
}

func runPrefetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	tourClient, cleanup, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	to := prefetchTo
	if to == 0 {
		to = tourRange(ctx, tourClient).Max
	}

	prefetcher := pagination.NewPrefetcher(tourClient, pagination.Config{
		MaxConcurrency: prefetchConcurrency,
	})

	result, fetchErr := prefetcher.FetchAll(ctx, prefetchFrom, to)
	if result == nil {
		return fetchErr
	}

	out := cmd.OutOrStdout()
	for i := prefetchFrom; i <= to; i++ {
		if rec, ok := result.Rooms[i]; ok {
			fmt.Fprintf(out, "%d\tok\t%s\n", i, rec.Name)
		} else if err, ok := result.Failed[i]; ok {
			fmt.Fprintf(out, "%d\tfailed\t%v\n", i, err)
		}
	}
	fmt.Fprintf(out, "%d/%d rooms fetched\n", len(result.Rooms), to-prefetchFrom+1)

	return fetchErr
}
