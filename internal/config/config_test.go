package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/progress/status", cfg.DashboardStatusPath)
	assert.Equal(t, "/refresh", cfg.DashboardRefreshPath)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.PollMaxDuration)
	assert.Equal(t, "progressbar", cfg.RenderTarget)
	assert.Equal(t, "$.state", cfg.StatusPathState)
	assert.False(t, cfg.MongoEnabled)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DASHBOARD_URL", "https://dashboard.example.com")
	t.Setenv("POLL_INTERVAL_MS", "500")
	t.Setenv("POLL_MAX_DURATION_SEC", "90")
	t.Setenv("MONGO_ENABLED", "true")
	t.Setenv("MONGO_MAX_POOL_SIZE", "2")
	t.Setenv("POLL_MAX_FAILURES", "not-a-number")

	cfg := Load()

	assert.Equal(t, "https://dashboard.example.com", cfg.DashboardURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.PollMaxDuration)
	assert.True(t, cfg.MongoEnabled)
	assert.Equal(t, 2, cfg.MongoMaxPool)
	assert.Equal(t, 3, cfg.PollMaxFailures)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{LogLevel: "info", LogFormat: "json"}, &buf)
	logger.Info("polled", "percent", 20)

	assert.Contains(t, buf.String(), `"percent":20`)

	buf.Reset()
	logger = NewLogger(&Config{LogLevel: "warn", LogFormat: "text"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "state", "FAILURE")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "state=FAILURE")
}
