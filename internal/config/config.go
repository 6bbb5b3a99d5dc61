// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidMaxUploadBytes is returned when MAX_UPLOAD_BYTES is not positive.
	ErrInvalidMaxUploadBytes = errors.New("config: MAX_UPLOAD_BYTES must be positive")
	// ErrInvalidSweepInterval is returned when retention is enabled with a
	// non-positive SWEEP_INTERVAL.
	ErrInvalidSweepInterval = errors.New("config: SWEEP_INTERVAL must be positive when RETENTION_TTL is set")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Storage settings
	DataDir        string `env:"DATA_DIR, default=/tmp/videocrop" json:"data_dir"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=1073741824" json:"max_upload_bytes"`

	// Transcoding settings
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`
	// TranscodeTimeout bounds a single engine invocation. Zero disables the
	// timeout; the invocation is still cancelled when the client disconnects.
	TranscodeTimeout time.Duration `env:"TRANSCODE_TIMEOUT, default=0" json:"transcode_timeout"`

	// Retention settings. A zero TTL keeps assets forever.
	RetentionTTL  time.Duration `env:"RETENTION_TTL, default=0" json:"retention_ttl"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL, default=10m" json:"sweep_interval"`

	// HTTP settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Optional S3 settings for mirroring derived assets
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 mirroring configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is coherent.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return ErrInvalidMaxUploadBytes
	}
	if c.RetentionTTL > 0 && c.SweepInterval <= 0 {
		return ErrInvalidSweepInterval
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, DataDir: %s, MaxUploadBytes: %d, TranscodeTimeout: %s, RetentionTTL: %s, SweepInterval: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.DataDir,
		c.MaxUploadBytes,
		c.TranscodeTimeout,
		c.RetentionTTL,
		c.SweepInterval,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
