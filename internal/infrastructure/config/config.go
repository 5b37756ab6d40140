// Package config loads process-level configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Pipeline  PipelineConfig
	CORS      CORSConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// UploadConfig holds upload validation configuration.
type UploadConfig struct {
	// MaxFileSize is the upload ceiling in bytes (default 50 MiB).
	MaxFileSize int64 `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`
	// ImagesOnly restricts uploads to image/* MIME types. The generic
	// variant (false) accepts any type; non-image jobs skip simulated work.
	ImagesOnly bool `envconfig:"UPLOAD_IMAGES_ONLY" default:"true"`
}

// PipelineConfig holds simulated-processing configuration.
type PipelineConfig struct {
	// Workers is the size of the background worker pool.
	Workers int `envconfig:"PIPELINE_WORKERS" default:"4"`
	// QueueSize bounds the pending-job channel.
	QueueSize int `envconfig:"PIPELINE_QUEUE_SIZE" default:"256"`

	OptimizeMinDelay  time.Duration `envconfig:"PIPELINE_OPTIMIZE_MIN_DELAY" default:"500ms"`
	OptimizeMaxDelay  time.Duration `envconfig:"PIPELINE_OPTIMIZE_MAX_DELAY" default:"1500ms"`
	ThumbnailMinDelay time.Duration `envconfig:"PIPELINE_THUMBNAIL_MIN_DELAY" default:"300ms"`
	ThumbnailMaxDelay time.Duration `envconfig:"PIPELINE_THUMBNAIL_MAX_DELAY" default:"800ms"`

	// SizeSavedMin/Max bound the simulated compression ratio.
	SizeSavedMin float64 `envconfig:"PIPELINE_SIZE_SAVED_MIN" default:"0.2"`
	SizeSavedMax float64 `envconfig:"PIPELINE_SIZE_SAVED_MAX" default:"0.5"`
	// ThumbnailSuccessRate is the probability the thumbnail step succeeds.
	ThumbnailSuccessRate float64 `envconfig:"PIPELINE_THUMBNAIL_SUCCESS_RATE" default:"0.95"`
}

// CORSConfig holds cross-origin configuration.
type CORSConfig struct {
	AllowOrigins     []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	AllowCredentials bool     `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects configurations the pipeline cannot honor.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.Workers < 1 {
		return fmt.Errorf("pipeline workers must be positive, got %d", p.Workers)
	}
	if p.OptimizeMinDelay > p.OptimizeMaxDelay {
		return fmt.Errorf("optimize delay range inverted: %v > %v", p.OptimizeMinDelay, p.OptimizeMaxDelay)
	}
	if p.ThumbnailMinDelay > p.ThumbnailMaxDelay {
		return fmt.Errorf("thumbnail delay range inverted: %v > %v", p.ThumbnailMinDelay, p.ThumbnailMaxDelay)
	}
	if p.SizeSavedMin < 0 || p.SizeSavedMax > 1 || p.SizeSavedMin > p.SizeSavedMax {
		return fmt.Errorf("size-saved range must satisfy 0 <= min <= max <= 1, got [%v, %v]", p.SizeSavedMin, p.SizeSavedMax)
	}
	if p.ThumbnailSuccessRate < 0 || p.ThumbnailSuccessRate > 1 {
		return fmt.Errorf("thumbnail success rate must be in [0, 1], got %v", p.ThumbnailSuccessRate)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max file size must be positive, got %d", c.Upload.MaxFileSize)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Upload: UploadConfig{
			MaxFileSize: 50 * 1024 * 1024,
			ImagesOnly:  true,
		},
		Pipeline: PipelineConfig{
			Workers:              4,
			QueueSize:            256,
			OptimizeMinDelay:     500 * time.Millisecond,
			OptimizeMaxDelay:     1500 * time.Millisecond,
			ThumbnailMinDelay:    300 * time.Millisecond,
			ThumbnailMaxDelay:    800 * time.Millisecond,
			SizeSavedMin:         0.2,
			SizeSavedMax:         0.5,
			ThumbnailSuccessRate: 0.95,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowCredentials: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
