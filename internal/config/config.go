// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidConfig is returned when a loaded value is out of range.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Frame directory layouts.
const (
	// LayoutJob namespaces frames under a per-job directory.
	LayoutJob = "job"
	// LayoutFlat writes every frame directly into FramesDir.
	LayoutFlat = "flat"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	MaxUploadMB    int64    `env:"MAX_UPLOAD_MB, default=1024" json:"max_upload_mb" validate:"min=1"`

	// Storage settings
	StaticDir    string `env:"STATIC_DIR, default=static" json:"static_dir" validate:"required"`
	UploadDir    string `env:"UPLOAD_DIR, default=static/uploads" json:"upload_dir" validate:"required"`
	FramesDir    string `env:"FRAMES_DIR, default=static/frames" json:"frames_dir" validate:"required"`
	FramesLayout string `env:"FRAMES_LAYOUT, default=job" json:"frames_layout" validate:"oneof=job flat"`

	// Sampling settings
	TargetFPS     int    `env:"TARGET_FPS, default=24" json:"target_fps" validate:"min=1"`
	FrameFormat   string `env:"FRAME_FORMAT, default=jpg" json:"frame_format" validate:"oneof=jpg jpeg png webp"`
	FrameQuality  int    `env:"FRAME_QUALITY, default=90" json:"frame_quality" validate:"min=1,max=100"`
	FrameMaxWidth int    `env:"FRAME_MAX_WIDTH, default=0" json:"frame_max_width" validate:"min=0"`

	// Decoder binary. Stream inspection uses the ffprobe found in PATH.
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `env:"S3_PREFIX, default=frames" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Observability settings
	MetricsEnabled bool   `env:"METRICS_ENABLED, default=true" json:"metrics_enabled"`
	LogFormat      string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel       string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// PerJobFrames reports whether frames are namespaced by job ID.
func (c *Config) PerJobFrames() bool {
	return c.FramesLayout != LayoutFlat
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
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

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
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
		"Config{Port: %d, UploadDir: %s, FramesDir: %s, FramesLayout: %s, TargetFPS: %d, FrameFormat: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.UploadDir,
		c.FramesDir,
		c.FramesLayout,
		c.TargetFPS,
		c.FrameFormat,
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
