package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. LSKD_SERVER_PORT.
const EnvPrefix = "LSKD"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (lskd.toml), when path is not empty
// 3. Environment variables (LSKD_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	if path != "" {
		if err := loadMainConfig(v, path); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// ReloadConfig reloads configuration from the same path
func ReloadConfig(existingConfig *Config) (*Config, error) {
	return LoadConfig(existingConfig.GetConfigPath())
}

// SaveExampleConfig writes an example configuration file
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	setDefaults(v)
	for key, value := range exampleOverrides() {
		v.Set(key, value)
	}

	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}

// exampleOverrides are the values an example file shows beyond the defaults
func exampleOverrides() map[string]any {
	return map[string]any{
		"database.path":      "/var/lib/lskd/state",
		"processor.fee_sink": "16313739661670634666L",
		"history.dsn":        "postgres://lskd@localhost:5432/lskd?sslmode=disable",
		"genesis.accounts": []map[string]any{
			{"address": "16313739661670634666L", "balance": "100000000"},
		},
	}
}
