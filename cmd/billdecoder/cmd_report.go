package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"billdecoder/internal/app"
	"billdecoder/internal/report"
)

var reportFlags struct {
	results string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render every report from the newest JSON report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFlags.results, "results", "", "Results directory (default from config)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("results") {
		cfg.Run.ResultsDir = reportFlags.results
	}
	rep, files, err := app.Rerender(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := report.WriteText(out, rep); err != nil {
		return err
	}
	fmt.Fprintf(out, "Re-rendered %s\n", files.JSON)
	return nil
}
