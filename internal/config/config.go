// Package config loads Kaishou settings from KAISHOU_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds the process settings. Command line flags override it.
type Config struct {
	Addr      string `env:"KAISHOU_ADDR" envDefault:"127.0.0.1:8787"`
	DataDir   string `env:"KAISHOU_DATA_DIR"`
	PluginDir string `env:"KAISHOU_PLUGIN_DIR"`
	WebDir    string `env:"KAISHOU_WEB_DIR"`

	Camera          bool    `env:"KAISHOU_CAMERA" envDefault:"true"`
	CameraID        int     `env:"KAISHOU_CAMERA_ID" envDefault:"0"`
	CameraFPS       int     `env:"KAISHOU_CAMERA_FPS" envDefault:"30"`
	MotionThreshold float64 `env:"KAISHOU_MOTION_THRESHOLD" envDefault:"0"`

	Threshold            float64 `env:"KAISHOU_THRESHOLD" envDefault:"0.18"`
	Seed                 uint64  `env:"KAISHOU_SEED"`
	MaxEpisodes          int     `env:"KAISHOU_MAX_EPISODES" envDefault:"0"`
	CancelEpisodesOnStop bool    `env:"KAISHOU_CANCEL_EPISODES_ON_STOP"`

	Audio          bool `env:"KAISHOU_AUDIO" envDefault:"true"`
	AudioTimeoutMs int  `env:"KAISHOU_AUDIO_TIMEOUT_MS" envDefault:"5000"`
	Journal        bool `env:"KAISHOU_JOURNAL" envDefault:"true"`
	Tray           bool `env:"KAISHOU_TRAY" envDefault:"false"`

	OTelEndpoint string `env:"KAISHOU_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and fills in directory defaults under ~/.kaishou.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("locate home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".kaishou")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("KAISHOU_ADDR is empty"))
	}
	if c.CameraFPS <= 0 {
		errs = append(errs, fmt.Errorf("KAISHOU_CAMERA_FPS must be positive, got %d", c.CameraFPS))
	}
	if c.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("KAISHOU_THRESHOLD must be positive, got %g", c.Threshold))
	}
	if c.MaxEpisodes < 0 {
		errs = append(errs, fmt.Errorf("KAISHOU_MAX_EPISODES must not be negative, got %d", c.MaxEpisodes))
	}
	if c.MotionThreshold < 0 || c.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("KAISHOU_MOTION_THRESHOLD must be a percentage, got %g", c.MotionThreshold))
	}
	return errors.Join(errs...)
}

// DBPath is the journal database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "kaishou.db")
}
