package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/goLSKd/internal/core/confirm"
	"github.com/LeJamon/goLSKd/internal/core/processor"
	"github.com/LeJamon/goLSKd/internal/core/tx"
	"github.com/LeJamon/goLSKd/internal/storage/relationaldb"
)

// Config represents the complete lskd configuration
type Config struct {
	// Server is the JSON-RPC listener
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Processor controls transaction application
	Processor ProcessorConfig `toml:"processor" mapstructure:"processor"`

	// Confirm controls confirmation tracking
	Confirm ConfirmConfig `toml:"confirm" mapstructure:"confirm"`

	// Fees are fixed per transaction type, in LSK
	Fees FeesConfig `toml:"fees" mapstructure:"fees"`

	// Database is the ledger state store
	Database DatabaseConfig `toml:"database" mapstructure:"database"`

	// History is the optional PostgreSQL transaction history
	History HistoryConfig `toml:"history" mapstructure:"history"`

	Log LogConfig `toml:"log" mapstructure:"log"`

	// Genesis balances are credited when the state store is empty
	Genesis GenesisConfig `toml:"genesis" mapstructure:"genesis"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
}

// ProcessorConfig represents the [processor] section
type ProcessorConfig struct {
	LockTimeout       time.Duration `toml:"lock_timeout" mapstructure:"lock_timeout"`
	RejectedCacheSize int           `toml:"rejected_cache_size" mapstructure:"rejected_cache_size"`
	FeeSink           string        `toml:"fee_sink" mapstructure:"fee_sink"` // Empty burns fees
}

// ConfirmConfig represents the [confirm] section
type ConfirmConfig struct {
	Threshold   uint64 `toml:"threshold" mapstructure:"threshold"`
	HistorySize int    `toml:"history_size" mapstructure:"history_size"`
}

// FeesConfig represents the [fees] section. Amounts are decimal LSK.
type FeesConfig struct {
	Send        string `toml:"send" mapstructure:"send"`
	Dapp        string `toml:"dapp" mapstructure:"dapp"`
	InTransfer  string `toml:"in_transfer" mapstructure:"in_transfer"`
	OutTransfer string `toml:"out_transfer" mapstructure:"out_transfer"`
}

// DatabaseConfig represents the [database] section
type DatabaseConfig struct {
	// Path of the pebble directory. Empty keeps state in memory.
	Path string `toml:"path" mapstructure:"path"`
}

// HistoryConfig represents the [history] section
type HistoryConfig struct {
	// DSN is the PostgreSQL connection string. Empty disables history.
	DSN             string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	Timeout         time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"` // text or json
}

// GenesisConfig represents the [genesis] section
type GenesisConfig struct {
	Accounts []GenesisAccount `toml:"accounts" mapstructure:"accounts"`
}

// GenesisAccount is one initial balance
type GenesisAccount struct {
	Address string `toml:"address" mapstructure:"address"`
	Balance string `toml:"balance" mapstructure:"balance"` // LSK
}

// GetConfigPath returns the path of the loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Schedule converts the configured fees to base units
func (f FeesConfig) Schedule() (tx.FeeSchedule, error) {
	var (
		s   tx.FeeSchedule
		err error
	)
	fields := []struct {
		name  string
		value string
		dst   *uint64
	}{
		{"send", f.Send, &s.Send},
		{"dapp", f.Dapp, &s.Dapp},
		{"in_transfer", f.InTransfer, &s.InTransfer},
		{"out_transfer", f.OutTransfer, &s.OutTransfer},
	}
	for _, field := range fields {
		if *field.dst, err = tx.ParseLSK(field.value); err != nil {
			return tx.FeeSchedule{}, fmt.Errorf("fees.%s: %w", field.name, err)
		}
	}
	return s, nil
}

// ProcessorSettings returns the processor configuration
func (c *Config) ProcessorSettings() (processor.Config, error) {
	fees, err := c.Fees.Schedule()
	if err != nil {
		return processor.Config{}, err
	}
	return processor.Config{
		LockTimeout:       c.Processor.LockTimeout,
		Fees:              fees,
		FeeSink:           c.Processor.FeeSink,
		RejectedCacheSize: c.Processor.RejectedCacheSize,
	}, nil
}

// ConfirmSettings returns the tracker configuration
func (c *Config) ConfirmSettings() confirm.Config {
	return confirm.Config{
		Threshold:   c.Confirm.Threshold,
		HistorySize: c.Confirm.HistorySize,
	}
}

// Enabled reports whether transaction history is configured
func (h HistoryConfig) Enabled() bool {
	return h.DSN != ""
}

// Relational returns the history database configuration
func (h HistoryConfig) Relational() *relationaldb.Config {
	cfg := relationaldb.NewConfig()
	cfg.ConnectionString = h.DSN
	cfg.MaxOpenConns = h.MaxOpenConns
	cfg.MaxIdleConns = h.MaxIdleConns
	cfg.ConnMaxLifetime = h.ConnMaxLifetime
	cfg.DefaultTimeout = h.Timeout
	return cfg
}

// Credits returns the genesis balances in base units, keyed by address
func (g GenesisConfig) Credits() (map[string]uint64, error) {
	credits := make(map[string]uint64, len(g.Accounts))
	for i, acc := range g.Accounts {
		if acc.Address == "" {
			return nil, fmt.Errorf("genesis account %d: missing address", i)
		}
		amount, err := tx.ParseLSK(acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("genesis account %s: %w", acc.Address, err)
		}
		if _, dup := credits[acc.Address]; dup {
			return nil, fmt.Errorf("genesis account %s listed twice", acc.Address)
		}
		credits[acc.Address] = amount
	}
	return credits, nil
}
