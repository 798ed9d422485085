package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/kaishou/internal/app"
	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/config"
	"github.com/ayusman/kaishou/internal/detector"
	"github.com/ayusman/kaishou/internal/explosion"
	"github.com/ayusman/kaishou/internal/landmark"
)

func simulateCmd(cfg *config.Config) *cobra.Command {
	var (
		fingers  []int
		interval time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Feed scripted open-finger counts through the engine and print what happens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.New(app.Config{
				Threshold: cfg.Threshold,
				Seed:      cfg.Seed,
				Detector:  detector.NewMockDetector(),
				Backend:   chime.Silent{},
			})
			return simulate(cmd.Context(), cmd.OutOrStdout(), a, fingers, interval, asJSON)
		},
	}

	cmd.Flags().IntSliceVar(&fingers, "fingers", []int{4, 2, 4, 0}, "open fingers per frame; negative means no hand")
	cmd.Flags().DurationVar(&interval, "interval", 33*time.Millisecond, "time between frames")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print transitions as JSON lines")
	return cmd
}

func simulate(ctx context.Context, out io.Writer, a *app.App, fingers []int, interval time.Duration, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if asJSON {
		enc := json.NewEncoder(out)
		unsubscribe := a.Subscribe(func(u app.Update) {
			if u.Kind == app.UpdateTransition {
				enc.Encode(u)
			}
		})
		defer unsubscribe()
	}

	start := time.Now()
	for i, n := range fingers {
		frame := app.Frame{At: start.Add(time.Duration(i) * interval)}
		if n >= 0 {
			hand := landmark.WithOpenFingers(n)
			frame.Hand = &hand
		}

		res := a.Process(ctx, frame)
		if asJSON {
			continue
		}

		fmt.Fprintf(out, "frame %d: %s", i, res.Raw)
		if res.Fired {
			fmt.Fprintf(out, " -> %s", res.Event)
		}
		fmt.Fprintf(out, " [%s, %s]\n", res.State.State, res.State.Gesture)
		if res.Episode != nil {
			printEpisode(out, res.Episode, res.Tones)
		}
	}
	return nil
}

func printEpisode(out io.Writer, ep *explosion.Episode, tones []chime.ToneEvent) {
	fmt.Fprintf(out, "  explosion %s: %d particles (%d stars), %v\n",
		ep.ID, len(ep.Particles), ep.Stars(), ep.EndsAt().Sub(ep.StartedAt))
	for _, t := range tones {
		fmt.Fprintf(out, "  chime %.0fHz at +%v\n", t.Frequency, t.Offset)
	}
}
