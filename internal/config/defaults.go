package config

import "github.com/spf13/viper"

// setDefaults registers every default value so a config file only needs to
// name the settings it changes.
func setDefaults(v *viper.Viper) {
	// Database defaults (local postgres)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "epinflow")
	v.SetDefault("database.username", "epinflow")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.default_timeout", "60s")

	// Blob store defaults
	v.SetDefault("blob_store.backend", "memory")
	v.SetDefault("blob_store.path", "")
	v.SetDefault("blob_store.compressor", "lz4")
	v.SetDefault("blob_store.min_compress_size", 128)

	// Pipeline defaults
	v.SetDefault("pipeline.batch_size", 250)
	v.SetDefault("pipeline.batch_timeout", "60s")
	v.SetDefault("pipeline.job_timeout", "300s")
	v.SetDefault("pipeline.max_batch_attempts", 3)
	v.SetDefault("pipeline.max_job_retries", 3)
	v.SetDefault("pipeline.skip_invalid_records", true)
	v.SetDefault("pipeline.lenient", false)

	// Report defaults
	v.SetDefault("report.cache_size", 64)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}
