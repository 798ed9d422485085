// Package commands implements the kaishou command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/ayusman/kaishou/internal/config"
)

// Execute runs the root command.
func Execute() error {
	root, err := newRootCmd()
	if err != nil {
		return err
	}
	return root.Execute()
}

// newRootCmd builds the command tree. The environment is read first so that
// flags override KAISHOU_* variables.
func newRootCmd() (*cobra.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:          "kaishou",
		Short:        "Hand-gesture transformation with fireworks and chimes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &cfg)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory (default ~/.kaishou)")
	f.StringVar(&cfg.PluginDir, "plugin-dir", cfg.PluginDir, "plugin directory")
	f.StringVar(&cfg.WebDir, "web-dir", cfg.WebDir, "static web directory")
	f.BoolVar(&cfg.Camera, "camera", cfg.Camera, "capture hands from the local camera")
	f.IntVar(&cfg.CameraID, "camera-id", cfg.CameraID, "camera device ID")
	f.IntVar(&cfg.CameraFPS, "fps", cfg.CameraFPS, "camera frames per second")
	f.Float64Var(&cfg.MotionThreshold, "motion-threshold", cfg.MotionThreshold, "percent of changed pixels before a frame is analysed (0 analyses all)")
	f.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "fingertip extension distance")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "explosion seed (0 is random)")
	f.IntVar(&cfg.MaxEpisodes, "max-episodes", cfg.MaxEpisodes, "concurrent explosions (0 is unlimited)")
	f.BoolVar(&cfg.CancelEpisodesOnStop, "cancel-episodes-on-stop", cfg.CancelEpisodesOnStop, "cut playing explosions short on shutdown")
	f.BoolVar(&cfg.Audio, "audio", cfg.Audio, "play the chime through the chime-player plugin")
	f.BoolVar(&cfg.Journal, "journal", cfg.Journal, "record transitions in the SQLite journal")
	f.BoolVar(&cfg.Tray, "tray", cfg.Tray, "show the system tray icon")
	f.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP trace endpoint")

	root.AddCommand(serveCmd(&cfg), simulateCmd(&cfg))
	return root, nil
}
