package relationaldb

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains history database settings
type Config struct {
	// Connection settings. ConnectionString takes precedence over the
	// individual fields when set.
	ConnectionString string `mapstructure:"dsn"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Database         string `mapstructure:"database"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	SSLMode          string `mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// DefaultTimeout bounds connection checks and schema setup.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// NewConfig creates a Config with defaults
func NewConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Database:        "lskd",
		Username:        "lskd",
		SSLMode:         "prefer",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
		DefaultTimeout:  30 * time.Second,
	}
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	if c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Database == "" {
			return ErrMissingDatabase
		}
		if c.Username == "" {
			return ErrMissingUsername
		}
		switch c.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ConnMaxLifetime < 0 {
		return ErrInvalidConnMaxLifetime
	}
	if c.ConnMaxIdleTime < 0 {
		return ErrInvalidConnMaxIdleTime
	}
	return nil
}

// BuildConnectionString builds a PostgreSQL connection string from the config
func (c *Config) BuildConnectionString() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}

	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "lskd")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = url.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = url.User(c.Username)
	}
	return u.String()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config with the password redacted
func (c *Config) String() string {
	clone := c.Clone()
	if clone.Password != "" {
		clone.Password = "xxx"
	}
	if clone.ConnectionString != "" {
		if u, err := url.Parse(clone.ConnectionString); err == nil {
			clone.ConnectionString = u.Redacted()
		}
	}
	return fmt.Sprintf("Config{Host: %s, Port: %d, Database: %s, Connection: %s}",
		clone.Host, clone.Port, clone.Database, clone.BuildConnectionString())
}
