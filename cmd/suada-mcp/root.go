// suada-mcp exposes the Suada business-analytics API to language models,
// either as an MCP tool server (serve) or as a one-shot direct client (ask).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"suada-mcp/internal/config"
	"suada-mcp/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "suada-mcp",
	Short: "MCP server and direct client for the Suada business-analytics API",
	Long: "suada-mcp lets language models retrieve and reason over business data\n" +
		"through Suada's hosted chat API: 'serve' registers MCP tools over stdio\n" +
		"or HTTP, 'ask' sends a single query through the direct client.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil {
		// A missing .env file is the common case, not a failure.
		if !os.IsNotExist(err) {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") || cfg.LogFormat == "" {
		cfg.LogFormat = logFormat
	}
	return logging.Setup(cfg.LogLevel, cfg.LogFormat, nil)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file (missing file is ignored)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
