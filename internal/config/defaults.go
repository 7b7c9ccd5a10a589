package config

import "github.com/spf13/viper"

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 7000)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.submit_rate", 100)
	v.SetDefault("server.submit_burst", 200)
	v.SetDefault("server.admin", false)

	// Processor defaults
	v.SetDefault("processor.lock_timeout", "5s")
	v.SetDefault("processor.rejected_cache_size", 10000)
	v.SetDefault("processor.fee_sink", "")

	// Confirmation defaults
	v.SetDefault("confirm.threshold", 1)
	v.SetDefault("confirm.history_size", 10000)

	// Fee defaults
	v.SetDefault("fees.send", "0.1")
	v.SetDefault("fees.dapp", "25")
	v.SetDefault("fees.in_transfer", "0.1")
	v.SetDefault("fees.out_transfer", "0.1")

	// Database defaults (memory only)
	v.SetDefault("database.path", "")

	// History defaults (disabled)
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 2)
	v.SetDefault("history.conn_max_lifetime", "1h")
	v.SetDefault("history.timeout", "10s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
