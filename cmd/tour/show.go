package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Sternrassler/room-tour/pkg/render"
	"github.com/spf13/cobra"
)

var (
	showFormat string
	renderMode string
)

var showCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Fetch and print a single room",
	Long: `Fetches /room/<index> and prints it.

Formats:
  text      heading, image and description as plain text
  json      the record as returned by the server
  document  the render targets (main_image, text_body, heading) after rendering`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "Output format: text, json or document")
	showCmd.Flags().StringVar(&renderMode, "render-mode", "", "Markup handling for document output: text, markup or sanitized (default TOUR_RENDER_MODE)")
}

func runShow(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("room index must be an integer: %q", args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	tourClient, cleanup, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := tourClient.FetchRoom(ctx, index)
	if err != nil {
		return fmt.Errorf("fetch room %d: %w", index, err)
	}

	out := cmd.OutOrStdout()
	switch showFormat {
	case "text":
		tour := tourRange(ctx, tourClient)
		return render.NewTerminalRenderer(out, tour.Count, 80).RenderRoom(index, record)

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(record)

	case "document":
		if renderMode == "" {
			renderMode = cfg.RenderMode
		}
		mode, err := render.ParseMode(renderMode)
		if err != nil {
			return err
		}
		targets := render.DefaultTargets()
		doc := render.NewDocument(targets.IDs()...)
		if err := render.NewDocumentRenderer(doc, targets, mode).RenderRoom(index, record); err != nil {
			return err
		}
		img, _ := doc.Element(targets.Image)
		text, _ := doc.Element(targets.Text)
		heading, _ := doc.Element(targets.Heading)
		fmt.Fprintf(out, "%s.src = %s\n", targets.Image, img.Src)
		fmt.Fprintf(out, "%s.innerHTML = %s\n", targets.Heading, heading.InnerHTML)
		fmt.Fprintf(out, "%s.innerHTML = %s\n", targets.Text, text.InnerHTML)
		return nil

	default:
		return fmt.Errorf("unknown format %q (want text, json or document)", showFormat)
	}
}
