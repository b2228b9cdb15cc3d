package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(Config{Level: level, OutputPaths: []string{filepath.Join(t.TempDir(), "log")}})
		require.NoError(t, err, level)
		require.NotNil(t, logger)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	assert.NotNil(t, NewOrNop(Config{Level: "loud"}))
}

func TestNew_RespectsLevel(t *testing.T) {
	logger, err := New(Config{Level: "warn", OutputPaths: []string{filepath.Join(t.TempDir(), "log")}})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Development)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}
