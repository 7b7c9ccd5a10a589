package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goLSKd/internal/config"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lskd",
	Short: "goLSKd - dapp transfer validation and settlement node",
	Long: `goLSKd validates and applies transfers between accounts and registered
dapps: plain sends, dapp registrations, deposits into a dapp and withdrawals
out of it. Accepted transactions are tracked until blocks confirm them.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// loadConfig reads the configuration named by --conf, or the defaults
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configFile)
}

// newLogger builds the process logger from the [log] section and the
// command line flags, which take precedence
func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	switch {
	case debug:
		level = logrus.DebugLevel
	case verbose && level < logrus.InfoLevel:
		level = logrus.InfoLevel
	case quiet:
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
