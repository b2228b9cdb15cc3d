package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/danieljhkim/wsoverlay/internal/overlay"
)

// Config holds daemon configuration read from the environment.
// The groups are embedded so every variable is WSOVERLAY_<NAME>.
type Config struct {
	LogConfig
	BackendConfig
	OverlayConfig
	MetricsConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Window manager backends.
const (
	BackendWmctrl = "wmctrl"
	BackendX11    = "x11"
)

// BackendConfig selects how the daemon talks to the window manager.
type BackendConfig struct {
	// Backend is "wmctrl" (wmctrl and xprop subprocesses) or "x11"
	// (direct X connection).
	Backend string `envconfig:"BACKEND" default:"wmctrl"`
}

// OverlayConfig holds overlay policies.
type OverlayConfig struct {
	// AutoStashOnEnter stashes a pulled workspace when the user switches to it.
	AutoStashOnEnter bool `envconfig:"AUTO_STASH_ON_ENTER" default:"false"`

	// Repull is "noop" or "recapture".
	Repull string `envconfig:"REPULL" default:"noop"`
}

// MetricsConfig holds the optional Prometheus listener.
type MetricsConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:9469". Empty disables it.
	Addr string `envconfig:"METRICS_ADDR" default:""`
}

// Load loads configuration from WSOVERLAY_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("wsoverlay", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !overlay.RepullPolicy(cfg.OverlayConfig.Repull).Valid() {
		return nil, fmt.Errorf("invalid WSOVERLAY_REPULL %q: want %s or %s",
			cfg.OverlayConfig.Repull, overlay.RepullNoop, overlay.RepullRecapture)
	}
	if cfg.BackendConfig.Backend != BackendWmctrl && cfg.BackendConfig.Backend != BackendX11 {
		return nil, fmt.Errorf("invalid WSOVERLAY_BACKEND %q: want %s or %s", cfg.BackendConfig.Backend, BackendWmctrl, BackendX11)
	}
	return &cfg, nil
}
