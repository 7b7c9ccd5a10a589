package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ServerConfig represents the [server] section
type ServerConfig struct {
	Bind           string        `toml:"bind" mapstructure:"bind"`                       // Listen address
	Port           int           `toml:"port" mapstructure:"port"`                       // Listen port
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"` // Per request deadline
	SubmitRate     float64       `toml:"submit_rate" mapstructure:"submit_rate"`         // Submissions per second, 0 disables limiting
	SubmitBurst    int           `toml:"submit_burst" mapstructure:"submit_burst"`
	Admin          bool          `toml:"admin" mapstructure:"admin"` // Enables block event methods
}

// Address returns the host:port the server listens on
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// Validate checks the [server] section
func (s ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port number must be between 1 and 65535, got %d", s.Port)
	}
	if s.Bind != "" && net.ParseIP(s.Bind) == nil && s.Bind != "localhost" {
		return fmt.Errorf("invalid bind address: %s", s.Bind)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if s.SubmitRate < 0 {
		return fmt.Errorf("submit_rate must be >= 0")
	}
	if s.SubmitRate > 0 && s.SubmitBurst < 1 {
		return fmt.Errorf("submit_burst must be >= 1 when submit_rate is set")
	}
	return nil
}
