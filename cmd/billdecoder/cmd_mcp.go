package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"billdecoder/internal/app"
	"billdecoder/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the scoring tools over MCP on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv, err := app.NewMCP(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return mcp.RunStdio(ctx, srv, cmd.InOrStdin(), cmd.OutOrStdout())
}
