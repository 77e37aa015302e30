// Package main provides the entry point for the compensation collector CLI
// and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	verbose    bool
	headed     bool
)

var rootCmd = &cobra.Command{
	Use:   "comp_agent",
	Short: "Job market compensation collector",
	Long: `comp_agent answers job market questions such as "Software Engineer in Seattle" by
collecting labor statistics, compensation database ranges, and live job postings in
parallel, then reconciling them into one salary report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by env and flags)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL or info)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print workflow progress and debug logs")
	rootCmd.PersistentFlags().BoolVar(&headed, "headed", false, "Show the browser window during scraping")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
