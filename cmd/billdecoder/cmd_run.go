package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"billdecoder/internal/app"
	"billdecoder/internal/report"
)

var runFlags struct {
	data     string
	results  string
	provider string
	files    int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every prompt against the test suite and write reports",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.data, "data", "", "Test document directory (default from config)")
	f.StringVar(&runFlags.results, "results", "", "Results directory (default from config)")
	f.StringVar(&runFlags.provider, "provider", "", "LLM provider: hathr, gemini or noop")
	f.IntVar(&runFlags.files, "files-per-type", 0, "Documents evaluated per document type")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.Run.DataDir = runFlags.data
	}
	if f.Changed("results") {
		cfg.Run.ResultsDir = runFlags.results
	}
	if f.Changed("provider") {
		cfg.LLM.Provider = strings.ToLower(runFlags.provider)
	}
	if f.Changed("files-per-type") {
		cfg.Run.FilesPerType = runFlags.files
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	rep, files, runErr := a.Evaluate(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	out := cmd.OutOrStdout()
	if err := report.WriteText(out, rep); err != nil {
		return err
	}
	fmt.Fprintf(out, "Reports: %s, %s, %s\nPresentation: %s\n", files.JSON, files.Text, files.Markdown, files.Presentation)
	if runErr != nil {
		return fmt.Errorf("run interrupted after %d tests: %w", rep.Summary.TotalTests, runErr)
	}
	return nil
}
