package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LeJamon/goLSKd/internal/core/schema"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validateProcessor(config); err != nil {
		return fmt.Errorf("processor validation failed: %w", err)
	}

	if err := config.ConfirmSettings().Validate(); err != nil {
		return fmt.Errorf("confirm validation failed: %w", err)
	}

	if config.History.Enabled() {
		if err := config.History.Relational().Validate(); err != nil {
			return fmt.Errorf("history validation failed: %w", err)
		}
	}

	if err := validateLog(config.Log); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	if _, err := config.Genesis.Credits(); err != nil {
		return fmt.Errorf("genesis validation failed: %w", err)
	}
	for _, acc := range config.Genesis.Accounts {
		if !schema.CheckFormat(schema.FormatAddress, acc.Address) {
			return fmt.Errorf("genesis validation failed: invalid address %s", acc.Address)
		}
	}

	return nil
}

func validateProcessor(config *Config) error {
	settings, err := config.ProcessorSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if sink := config.Processor.FeeSink; sink != "" && !schema.CheckFormat(schema.FormatAddress, sink) {
		return fmt.Errorf("invalid fee_sink address: %s", sink)
	}
	return nil
}

func validateLog(l LogConfig) error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Format {
	case "text", "json":
		return nil
	default:
		return errors.New("format must be text or json")
	}
}
