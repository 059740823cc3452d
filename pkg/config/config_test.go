package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biotel/biotel/internal/protocol"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 25*time.Millisecond, cfg.PublishPeriod)
	assert.Equal(t, 100, cfg.WindowSize)
	assert.Equal(t, 100, cfg.BufferCapacity)
	assert.Equal(t, "both", cfg.Mode)
	assert.False(t, cfg.Simulated)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biotel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\npublish_period: 50ms\nmode: raw\nsimulated: true\n",
	), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50*time.Millisecond, cfg.PublishPeriod)
	assert.Equal(t, "raw", cfg.Mode)
	assert.True(t, cfg.Simulated)
	// Untouched fields keep defaults.
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 100, cfg.WindowSize)
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biotel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: turbo\n"), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestModeByte(t *testing.T) {
	tests := []struct {
		mode    string
		want    byte
		wantErr bool
	}{
		{mode: "result", want: protocol.ModeResultOnly},
		{mode: "raw", want: protocol.ModeRawOnly},
		{mode: "both", want: protocol.ModeBoth},
		{mode: "", want: protocol.ModeBoth},
		{mode: "turbo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("mode "+tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}

			got, err := cfg.ModeByte()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}

	logger, err := cfg.NewLogger()

	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, formatter.FullTimestamp)
	assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	cfg := &Config{LogLevel: "shout"}

	_, err := cfg.NewLogger()

	assert.Error(t, err)
}
