package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, "uploads", cfg.UploadsDir)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 24*time.Hour, cfg.JobTTL)
	assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRESGEN_LISTEN_ADDR", ":9999")
	t.Setenv("PRESGEN_WORKERS", "8")
	t.Setenv("PRESGEN_JOB_TTL", "30m")
	t.Setenv("PRESGEN_FFMPEG_BIN", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegBin)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRESGEN_IMAGE_NAME=staging-pres-gen\n"), 0644))
	// godotenv mutates the process environment.
	t.Cleanup(func() { os.Unsetenv("PRESGEN_IMAGE_NAME") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "staging-pres-gen", cfg.ImageName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no listen addr", func(c *Config) { c.ListenAddr = "" }, "listen address"},
		{"no uploads dir", func(c *Config) { c.UploadsDir = "" }, "uploads directory"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "worker count"},
		{"negative ttl", func(c *Config) { c.JobTTL = -time.Hour }, "job TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
