package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeJamon/goLSKd/internal/node"
)

var (
	// Server flags
	port     int
	bindAddr string
	dataDir  string
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the lskd daemon",
	Long: `Start the lskd node which provides:
- HTTP JSON-RPC API for submissions and queries
- Block event intake for confirmation tracking (admin)
- Health check and Prometheus metrics endpoints

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer

	// Server-specific flags override the configuration file
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "", "state database directory")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}
	if dataDir != "" {
		cfg.Database.Path = dataDir
	}
	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, cfg, node.WithLogger(logger), node.WithVersion(rootCmd.Version))
	if err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}
	defer n.Close()

	logger.WithFields(logrus.Fields{
		"version": rootCmd.Version,
		"address": cfg.Server.Address(),
		"config":  cfg.GetConfigPath(),
		"admin":   cfg.Server.Admin,
		"history": cfg.History.Enabled(),
	}).Info("Starting lskd")

	return n.Run(ctx)
}
