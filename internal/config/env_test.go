package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogConfig:     LogConfig{Level: "info"},
		BackendConfig: BackendConfig{Backend: BackendWmctrl},
		OverlayConfig: OverlayConfig{Repull: "noop"},
	}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("WSOVERLAY_LOG_LEVEL", "debug")
	t.Setenv("WSOVERLAY_LOG_DEV", "true")
	t.Setenv("WSOVERLAY_AUTO_STASH_ON_ENTER", "true")
	t.Setenv("WSOVERLAY_REPULL", "recapture")
	t.Setenv("WSOVERLAY_METRICS_ADDR", "127.0.0.1:9469")
	t.Setenv("WSOVERLAY_BACKEND", "x11")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogConfig.Level)
	assert.True(t, cfg.LogConfig.Development)
	assert.True(t, cfg.OverlayConfig.AutoStashOnEnter)
	assert.Equal(t, "recapture", cfg.OverlayConfig.Repull)
	assert.Equal(t, "127.0.0.1:9469", cfg.MetricsConfig.Addr)
	assert.Equal(t, BackendX11, cfg.BackendConfig.Backend)
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("WSOVERLAY_BACKEND", "wayland")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRepull(t *testing.T) {
	t.Setenv("WSOVERLAY_REPULL", "sometimes")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want noop or recapture")
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("WSOVERLAY_AUTO_STASH_ON_ENTER", "perhaps")

	_, err := Load()
	assert.Error(t, err)
}
