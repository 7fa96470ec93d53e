package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"billdecoder/internal/app"
)

var serveFlags struct {
	addr    string
	results string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTML presentation and the results directory",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (default from config)")
	f.StringVar(&serveFlags.results, "results", "", "Results directory (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.HTTP.Addr = serveFlags.addr
	}
	if cmd.Flags().Changed("results") {
		cfg.Run.ResultsDir = serveFlags.results
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s (Ctrl+C to stop)\n", cfg.Run.ResultsDir, cfg.HTTP.Addr)
	return app.Serve(ctx, cfg, logger)
}
