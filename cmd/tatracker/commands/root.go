package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	watchlistPath string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tatracker",
	Short: "Technical analysis tracker for Vietnamese equities",
	Long: `tatracker CLI

Fetches daily price bars from multiple market data providers, computes
technical indicators and trading signals, and aggregates them into
composite ratings per symbol.

Usage:
  go run ./cmd/tatracker [command]

Examples:
  go run ./cmd/tatracker analyze
  go run ./cmd/tatracker analyze --ticker VCB
  go run ./cmd/tatracker fetch VNINDEX
  go run ./cmd/tatracker serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&watchlistPath, "watchlist", "", "watchlist file (default from WATCHLIST_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
