package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the pres-gen service and CLI.
type Config struct {
	// HTTP server settings
	ListenAddr string `env:"PRESGEN_LISTEN_ADDR"`

	// Working storage
	UploadsDir string `env:"PRESGEN_UPLOADS_DIR"`
	StorePath  string `env:"PRESGEN_STORE_PATH"`

	// Background job processing
	Workers int           `env:"PRESGEN_WORKERS"`
	JobTTL  time.Duration `env:"PRESGEN_JOB_TTL"`

	// Logging settings
	LogLevel string `env:"PRESGEN_LOG_LEVEL"`

	// External tool binaries
	FFmpegBin   string `env:"PRESGEN_FFMPEG_BIN"`
	PdftoppmBin string `env:"PRESGEN_PDFTOPPM_BIN"`
	PdfinfoBin  string `env:"PRESGEN_PDFINFO_BIN"`
	DockerBin   string `env:"PRESGEN_DOCKER_BIN"`

	// Container image settings
	ImageName   string `env:"PRESGEN_IMAGE_NAME"`
	RegistryURL string `env:"PRESGEN_REGISTRY_URL"`
}

// Load builds the configuration from defaults, an optional .env file, and
// environment variable overrides, in that order.
func Load(envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:  ":8000",
		UploadsDir:  "uploads",
		StorePath:   filepath.Join("uploads", "jobs.db"),
		Workers:     2,
		JobTTL:      24 * time.Hour,
		LogLevel:    "info",
		FFmpegBin:   "ffmpeg",
		PdftoppmBin: "pdftoppm",
		PdfinfoBin:  "pdfinfo",
		DockerBin:   "docker",
		ImageName:   "pres-gen",
		RegistryURL: "",
	}
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("PRESGEN_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PRESGEN_UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("PRESGEN_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("PRESGEN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("PRESGEN_JOB_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JobTTL = d
		}
	}
	if v := os.Getenv("PRESGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRESGEN_FFMPEG_BIN"); v != "" {
		cfg.FFmpegBin = v
	}
	if v := os.Getenv("PRESGEN_PDFTOPPM_BIN"); v != "" {
		cfg.PdftoppmBin = v
	}
	if v := os.Getenv("PRESGEN_PDFINFO_BIN"); v != "" {
		cfg.PdfinfoBin = v
	}
	if v := os.Getenv("PRESGEN_DOCKER_BIN"); v != "" {
		cfg.DockerBin = v
	}
	if v := os.Getenv("PRESGEN_IMAGE_NAME"); v != "" {
		cfg.ImageName = v
	}
	if v := os.Getenv("PRESGEN_REGISTRY_URL"); v != "" {
		cfg.RegistryURL = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("uploads directory must not be empty")
	}
	if c.StorePath == "" {
		return fmt.Errorf("store path must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Workers)
	}
	if c.JobTTL <= 0 {
		return fmt.Errorf("job TTL must be positive, got %s", c.JobTTL)
	}
	return nil
}
