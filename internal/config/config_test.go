package config

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the config reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATA_DIR", "MAX_UPLOAD_BYTES",
		"FFMPEG_PATH", "FFPROBE_PATH", "TRANSCODE_TIMEOUT",
		"RETENTION_TTL", "SWEEP_INTERVAL", "ALLOWED_ORIGINS",
		"S3_BUCKET", "S3_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"LOG_FORMAT", "LOG_LEVEL",
	} {
		// t.Setenv registers cleanup; Unsetenv afterwards leaves the var
		// absent for the duration of the test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/videocrop", cfg.DataDir)
	assert.Equal(t, int64(1<<30), cfg.MaxUploadBytes)
	assert.Equal(t, time.Duration(0), cfg.TranscodeTimeout)
	assert.Equal(t, time.Duration(0), cfg.RetentionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/var/lib/videocrop")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("TRANSCODE_TIMEOUT", "5m")
	t.Setenv("RETENTION_TTL", "24h")
	t.Setenv("SWEEP_INTERVAL", "1h")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/var/lib/videocrop", cfg.DataDir)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, 5*time.Minute, cfg.TranscodeTimeout)
	assert.Equal(t, 24*time.Hour, cfg.RetentionTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("non-positive MAX_UPLOAD_BYTES", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAX_UPLOAD_BYTES", "0")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidMaxUploadBytes)
	})

	t.Run("retention enabled without sweep interval", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETENTION_TTL", "1h")
		t.Setenv("SWEEP_INTERVAL", "0")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSweepInterval)
	})
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.S3Enabled())

	cfg.S3Bucket = "videos"
	assert.False(t, cfg.S3Enabled())

	cfg.S3Region = "eu-west-1"
	assert.True(t, cfg.S3Enabled())
}

func TestNewLogger(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		cfg := &Config{LogFormat: "text", LogLevel: "info"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
	})

	t.Run("json format", func(t *testing.T) {
		cfg := &Config{LogFormat: "json", LogLevel: "debug"}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "level %q", tt.in)
	}
}
