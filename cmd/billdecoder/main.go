// billdecoder evaluates LLM answers about medical bills, lab results and
// explanations of benefits.
//
// Usage:
//
//	billdecoder generate [--out=<dir>] [--seed=<n>]
//	billdecoder run [--data=<dir>] [--results=<dir>] [--provider=<name>]
//	billdecoder report [--results=<dir>]
//	billdecoder serve [--addr=<addr>] [--results=<dir>]
//	billdecoder score [file|-] [--json]
//	billdecoder mcp
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"billdecoder/internal/config"
	"billdecoder/internal/observability"
)

// version is set at build time via -ldflags.
var version = "dev"

var globalFlags struct {
	configPath string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "billdecoder",
	Short: "Evaluate LLM answers about medical documents",
	Long: "billdecoder generates synthetic medical bills, lab results and EOBs,\n" +
		"sends every prompt/document pair to an LLM, scores the answers and\n" +
		"renders JSON, text, Markdown and HTML reports.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&globalFlags.configPath, "config", os.Getenv("BD_CONFIG"), "Path to the YAML config file")
	f.StringVar(&globalFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the global log level flag.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(globalFlags.configPath)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if globalFlags.logLevel != "" {
		cfg.Log.Level = globalFlags.logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
