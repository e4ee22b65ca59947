package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/room-tour/pkg/navigator"
	"github.com/Sternrassler/room-tour/pkg/render"
	"github.com/spf13/cobra"
)

var (
	legacyPrev     bool
	keepStale      bool
	cancelInFlight bool
	warm           bool
	wrapWidth      int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Walk through the tour interactively",
	Long: `Shows room 1, then reads commands from standard input:

  n, next, <enter>   next room
  p, prev            previous room
  r, reload          back to room 1
  q, quit            exit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&legacyPrev, "legacy-prev", false, "Make prev step forward like next")
	browseCmd.Flags().BoolVar(&keepStale, "keep-stale", false, "Render every response as it arrives instead of only the latest")
	browseCmd.Flags().BoolVar(&cancelInFlight, "cancel-in-flight", false, "Cancel the previous fetch on each navigation")
	browseCmd.Flags().BoolVar(&warm, "warm", false, "Prefetch all rooms before starting")
	browseCmd.Flags().IntVar(&wrapWidth, "width", 80, "Wrap descriptions at this width (0 disables)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tourClient, cleanup, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tour := tourRange(ctx, tourClient)

	navCfg := navigator.DefaultConfig()
	navCfg.Min, navCfg.Max = tour.Min, tour.Max
	navCfg.LegacyPrev = legacyPrev
	navCfg.CancelInFlight = cancelInFlight
	if keepStale {
		navCfg.StalePolicy = navigator.LastCompletedWins
	}

	renderer := render.NewTerminalRenderer(cmd.OutOrStdout(), tour.Count, wrapWidth)
	nav, err := navigator.New(tourClient, renderer, navCfg)
	if err != nil {
		return err
	}
	defer nav.Close()

	if warm {
		if n, err := nav.Warm(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warm-up incomplete (%d rooms): %v\n", n, err)
		}
	}

	if _, err := nav.OnLoad(ctx); err != nil {
		return err
	}
	nav.Wait()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		var navErr error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "n", "next":
			_, navErr = nav.OnNext(ctx)
		case "p", "prev":
			_, navErr = nav.OnPrev(ctx)
		case "r", "reload":
			_, navErr = nav.OnLoad(ctx)
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(cmd.ErrOrStderr(), "commands: n(ext), p(rev), r(eload), q(uit)")
			continue
		}
		if navErr != nil {
			return navErr
		}
		nav.Wait()
	}

	return scanner.Err()
}
