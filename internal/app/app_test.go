package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.EqualValues(t, 10, cfg.PGMaxConns)

	rate, err := cfg.VATRate()
	require.NoError(t, err)
	require.Equal(t, "0.075", rate.String())
}

func TestNewLoggerHandlerSelection(t *testing.T) {
	prod := &Config{AppEnv: "production", LogFormat: "pretty"}
	_, ok := NewLogger(prod).Handler().(*slog.JSONHandler)
	// Production always gets JSON regardless of LOG_FORMAT.
	require.True(t, ok)

	dev := &Config{AppEnv: "development", LogFormat: "pretty"}
	_, ok = NewLogger(dev).Handler().(*slog.TextHandler)
	require.True(t, ok)

	dev.LogFormat = "json"
	_, ok = NewLogger(dev).Handler().(*slog.JSONHandler)
	require.True(t, ok)
}
