package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration from three sources in priority order:
// 1. Default values
// 2. Configuration file (TOML), when configPath is non-empty
// 3. Environment variables (EPINFLOW_ prefix)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Defaults first so the file only overrides what it names
	setDefaults(v)

	// 2. Optional configuration file
	if configPath != "" {
		if err := loadFile(v, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Environment variables: EPINFLOW_DATABASE_HOST overrides database.host
	v.SetEnvPrefix("EPINFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.configPath = configPath

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// LoadDefault builds a configuration from defaults and environment only.
func LoadDefault() (*Config, error) {
	return Load("")
}

func loadFile(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}
