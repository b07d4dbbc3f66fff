package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alex386386/streem-relay/internal/app"
	"github.com/Alex386386/streem-relay/internal/config"
	"github.com/Alex386386/streem-relay/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		httpAddr   string
		logLevel   string
		logFile    string
		snapshot   string
	)

	root := &cobra.Command{
		Use:           "relayd",
		Short:         "streem-relay chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel, logFile)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}

			// CLI flags win over the config file and env.
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFile = logFile
			}
			if cmd.Flags().Changed("snapshot") {
				cfg.SnapshotPath = snapshot
			}
			logger = log.New(cfg.LogLevel, cfg.LogFile)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting streem-relay server")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&addr, "addr", "", "TCP listen address (host:port)")
	root.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address for the WebSocket transport")
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&logFile, "log-file", "", "append logs to this file instead of stdout")
	root.Flags().StringVar(&snapshot, "snapshot", "", "path to the snapshot database")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "relayd:", err)
		os.Exit(1)
	}
}
