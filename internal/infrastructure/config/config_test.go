package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxFileSize)
	assert.True(t, cfg.Upload.ImagesOnly)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.OptimizeMinDelay)
	assert.Equal(t, 0.95, cfg.Pipeline.ThumbnailSuccessRate)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPLOAD_IMAGES_ONLY", "false")
	t.Setenv("PIPELINE_OPTIMIZE_MIN_DELAY", "10ms")
	t.Setenv("PIPELINE_OPTIMIZE_MAX_DELAY", "20ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Upload.ImagesOnly)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.OptimizeMinDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.Pipeline.OptimizeMaxDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Pipeline.Workers = 0 },
			errMsg: "workers",
		},
		{
			name: "inverted optimize range",
			mutate: func(c *Config) {
				c.Pipeline.OptimizeMinDelay = 2 * time.Second
				c.Pipeline.OptimizeMaxDelay = time.Second
			},
			errMsg: "optimize delay range inverted",
		},
		{
			name:   "size-saved ratio above one",
			mutate: func(c *Config) { c.Pipeline.SizeSavedMax = 1.5 },
			errMsg: "size-saved range",
		},
		{
			name:   "negative success rate",
			mutate: func(c *Config) { c.Pipeline.ThumbnailSuccessRate = -0.1 },
			errMsg: "success rate",
		},
		{
			name:   "zero max file size",
			mutate: func(c *Config) { c.Upload.MaxFileSize = 0 },
			errMsg: "max file size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}
