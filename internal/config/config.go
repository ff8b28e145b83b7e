package config

import (
	"fmt"

	"github.com/openclearing/epinflow/internal/job"
	"github.com/openclearing/epinflow/internal/storage/blobstore"
	"github.com/openclearing/epinflow/internal/storage/recorddb"
)

// Config is the complete application configuration, loaded from defaults,
// an optional TOML file and EPINFLOW_ environment variables.
type Config struct {
	// Database configures the record store (postgres or sqlite).
	Database recorddb.Config `toml:"database" mapstructure:"database"`

	// BlobStore configures where uploaded file content is kept.
	BlobStore blobstore.Config `toml:"blob_store" mapstructure:"blob_store"`

	// Pipeline tunes batch processing.
	Pipeline job.Config `toml:"pipeline" mapstructure:"pipeline"`

	// Report configures the report layer.
	Report ReportConfig `toml:"report" mapstructure:"report"`

	// Log configures logging output.
	Log LogConfig `toml:"log" mapstructure:"log"`

	configPath string
}

// ReportConfig tunes the report service.
type ReportConfig struct {
	// CacheSize is the number of built report trees kept in memory.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" mapstructure:"level"`
	// File is an optional log file path; empty logs to stderr.
	File string `toml:"file" mapstructure:"file"`
}

// GetConfigPath returns the path of the file this config was loaded from,
// or empty when only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Validate checks the complete configuration.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := validateBlobStore(&c.BlobStore); err != nil {
		return fmt.Errorf("blob_store config validation failed: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config validation failed: %w", err)
	}
	if c.Report.CacheSize < 0 {
		return fmt.Errorf("report config validation failed: cache_size must not be negative, got %d", c.Report.CacheSize)
	}
	if err := validateLog(&c.Log); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

func validateBlobStore(cfg *blobstore.Config) error {
	available := blobstore.Available()
	found := false
	for _, name := range available {
		if name == cfg.Backend {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown backend %q (available: %v)", cfg.Backend, available)
	}
	if cfg.Backend != "memory" && cfg.Path == "" {
		return fmt.Errorf("backend %q requires a path", cfg.Backend)
	}
	if _, err := blobstore.GetCompressor(cfg.Compressor); err != nil {
		return err
	}
	if cfg.MinCompressSize < 0 {
		return fmt.Errorf("min_compress_size must not be negative, got %d", cfg.MinCompressSize)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", cfg.Level)
}
