package recorddb

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains record store connection settings.
type Config struct {
	Driver           string `json:"driver" mapstructure:"driver"`
	ConnectionString string `json:"connection_string" mapstructure:"connection_string"`
	Host             string `json:"host" mapstructure:"host"`
	Port             int    `json:"port" mapstructure:"port"`
	Database         string `json:"database" mapstructure:"database"`
	Username         string `json:"username" mapstructure:"username"`
	Password         string `json:"password" mapstructure:"password"`
	SSLMode          string `json:"ssl_mode" mapstructure:"ssl_mode"`

	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// DefaultTimeout bounds every batch transaction.
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
}

// NewConfig returns defaults suitable for a local postgres.
func NewConfig() *Config {
	return &Config{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		Database:        "epinflow",
		Username:        "epinflow",
		SSLMode:         "prefer",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 60,
	}
}

// SQLiteConfig returns a configuration for a file-backed sqlite store.
func SQLiteConfig(path string) *Config {
	cfg := NewConfig()
	cfg.Driver = "sqlite"
	cfg.Database = path
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	return cfg
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = "postgres"
	case "sqlite", "sqlite3":
		c.Driver = "sqlite"
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.Driver == "postgres" && c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Database == "" {
			return ErrMissingDatabase
		}
		switch c.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}
	if c.Driver == "sqlite" && c.Database == "" && c.ConnectionString == "" {
		return ErrMissingDatabase
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// DSN builds the driver connection string.
func (c *Config) DSN() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	switch c.Driver {
	case "postgres":
		params := url.Values{}
		params.Set("sslmode", c.SSLMode)
		params.Set("application_name", "epinflow")

		u := url.URL{
			Scheme:   "postgres",
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     "/" + c.Database,
			RawQuery: params.Encode(),
		}
		if c.Username != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			} else {
				u.User = url.User(c.Username)
			}
		}
		return u.String(), nil
	case "sqlite":
		return c.Database, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
}

// String redacts the password.
func (c *Config) String() string {
	clone := *c
	if clone.Password != "" {
		clone.Password = "***"
	}
	return fmt.Sprintf("Config{Driver: %s, Host: %s, Port: %d, Database: %s}",
		clone.Driver, clone.Host, clone.Port, clone.Database)
}
