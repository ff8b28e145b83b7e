package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/openclearing/epinflow/internal/storage/blobstore/pebble"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := LoadDefault()
	require.NoError(t, err)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	require.Equal(t, 60*time.Second, cfg.Database.DefaultTimeout)

	require.Equal(t, "memory", cfg.BlobStore.Backend)
	require.Equal(t, "lz4", cfg.BlobStore.Compressor)

	require.Equal(t, 250, cfg.Pipeline.BatchSize)
	require.Equal(t, 300*time.Second, cfg.Pipeline.JobTimeout)
	require.True(t, cfg.Pipeline.SkipInvalidRecords)

	require.Equal(t, 64, cfg.Report.CacheSize)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.GetConfigPath())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epinflow.toml")
	content := `
[database]
driver = "sqlite"
database = "/tmp/epinflow.db"

[pipeline]
batch_size = 50
lenient = true

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, cfg.GetConfigPath())

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "/tmp/epinflow.db", cfg.Database.Database)
	require.Equal(t, 50, cfg.Pipeline.BatchSize)
	require.True(t, cfg.Pipeline.Lenient)
	require.Equal(t, "debug", cfg.Log.Level)

	// Unnamed settings keep their defaults
	require.Equal(t, 3, cfg.Pipeline.MaxBatchAttempts)
	require.Equal(t, "memory", cfg.BlobStore.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("EPINFLOW_DATABASE_HOST", "db.internal")
	t.Setenv("EPINFLOW_LOG_LEVEL", "warn")

	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := LoadDefault()
		require.NoError(t, err)
		return cfg
	}

	cfg := base(t)
	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.BlobStore.Backend = "s3"
	require.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.BlobStore.Backend = "pebble"
	cfg.BlobStore.Path = ""
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires a path")

	cfg = base(t)
	cfg.BlobStore.Compressor = "zstd"
	require.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Pipeline.BatchSize = 0
	require.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Report.CacheSize = -1
	require.Error(t, cfg.Validate())

	cfg = base(t)
	cfg.Log.Level = "verbose"
	require.Error(t, cfg.Validate())
}
