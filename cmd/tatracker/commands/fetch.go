package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tatracker/internal/contracts"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker]",
	Short: "Fetch raw daily bars for one symbol",
	Long: `Fetches the daily price series for a single symbol through the
provider routing chain and prints the most recent bars. Useful for
checking provider health and fallback behavior.

Example:
  go run ./cmd/tatracker fetch VNINDEX
  go run ./cmd/tatracker fetch VCB --days 30`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var fetchDays int

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&fetchDays, "days", 10, "number of recent bars to print")
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	ticker := args[0]
	sym, ok := a.list.Find(ticker)
	if !ok {
		// Not on the watchlist; route on ticker alone.
		sym = contracts.Symbol{Ticker: ticker}
	}

	to := contracts.LastTradingDate(time.Now())
	from := to.AddDate(0, 0, -a.cfg.Analysis.PeriodDays)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	series, err := a.router.Fetch(ctx, sym, from, to)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sym.Ticker, err)
	}

	fmt.Printf("%s: %d bars (%s routing class)\n\n",
		sym.Ticker, len(series), sym.Class())
	fmt.Printf("%-12s %10s %10s %10s %10s %14s\n",
		"DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")

	start := len(series) - fetchDays
	if start < 0 {
		start = 0
	}
	for _, bar := range series[start:] {
		fmt.Printf("%-12s %10.2f %10.2f %10.2f %10.2f %14.0f\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	return nil
}
