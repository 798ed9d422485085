package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/kaishou/internal/app"
	"github.com/ayusman/kaishou/internal/capture"
	"github.com/ayusman/kaishou/internal/chime"
	"github.com/ayusman/kaishou/internal/config"
	"github.com/ayusman/kaishou/internal/detector"
	"github.com/ayusman/kaishou/internal/plugin"
	"github.com/ayusman/kaishou/internal/server"
	"github.com/ayusman/kaishou/internal/store"
	"github.com/ayusman/kaishou/internal/telemetry"
	"github.com/ayusman/kaishou/internal/tray"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and its HTTP/WebSocket server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelEndpoint, "kaishou")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	var st *store.Store
	if cfg.Journal {
		st, err = store.New(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer st.Close()
	}

	var backend chime.Backend = chime.Silent{}
	if cfg.Audio {
		if player := chimePlayer(cfg); player != nil {
			backend = player
			defer player.Wait()
		}
	}

	camera := capture.DefaultConfig()
	camera.DeviceID = cfg.CameraID
	camera.FPS = cfg.CameraFPS

	appCfg := app.Config{
		Threshold:            cfg.Threshold,
		Seed:                 cfg.Seed,
		MaxEpisodes:          cfg.MaxEpisodes,
		CancelEpisodesOnStop: cfg.CancelEpisodesOnStop,
		Camera:               camera,
		MotionThreshold:      cfg.MotionThreshold,
		Backend:              backend,
		Store:                st,
	}
	if !cfg.Camera {
		// Browser-pushed landmarks only.
		appCfg.Detector = detector.NewMockDetector()
	}
	a := app.New(appCfg)

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.Printf("serving static files from %s", webDir)
	}
	srv := server.New(server.Config{StaticDir: webDir, App: a, Store: st})

	if cfg.Camera {
		if err := a.Start(); err != nil {
			log.Printf("camera unavailable, waiting for browser landmarks: %v", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		a.Stop()
		return nil
	})
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Addr) })

	if cfg.Tray {
		runTray(gctx, stop, a, "http://"+cfg.Addr)
	}

	return g.Wait()
}

// chimePlayer returns the plugin-backed audio backend, or nil when the
// chime-player plugin is not installed.
func chimePlayer(cfg *config.Config) *plugin.ChimeBackend {
	manager := plugin.NewManager(cfg.PluginDir)
	if err := manager.Discover(); err != nil {
		log.Printf("plugin discovery failed: %v", err)
		return nil
	}
	if _, err := manager.Get(plugin.ChimePlayer); err != nil {
		log.Printf("audio disabled: %s plugin not found in %s", plugin.ChimePlayer, manager.PluginDir())
		return nil
	}
	return plugin.NewChimeBackend(manager, plugin.NewExecutor(cfg.AudioTimeoutMs))
}

// runTray blocks on the tray until ctx is done or the user quits.
func runTray(ctx context.Context, quit func(), a *app.App, url string) {
	t := tray.New()
	t.SetState(a.State())
	t.OnToggle(a.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("open browser: %v", err)
		}
	})
	t.OnQuit(quit)

	unsubscribe := a.Subscribe(func(app.Update) { t.SetState(a.State()) })
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}
	return ""
}
