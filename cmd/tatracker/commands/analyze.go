package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tatracker/internal/contracts"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analysis pipeline over the watchlist",
	Long: `Fetches price history for every watchlist symbol, computes the
indicator set, evaluates trading signals and prints the composite
ratings for the last three sessions.

Example:
  go run ./cmd/tatracker analyze
  go run ./cmd/tatracker analyze --ticker VCB
  go run ./cmd/tatracker analyze --sector Banking --date 2026-08-28`,
	RunE: runAnalyze,
}

var (
	analyzeTicker string
	analyzeSector string
	analyzeDate   string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeTicker, "ticker", "", "analyze a single ticker")
	analyzeCmd.Flags().StringVar(&analyzeSector, "sector", "", "restrict to one sector")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "evaluation date (YYYY-MM-DD, default today)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	date := time.Now()
	if analyzeDate != "" {
		date, err = time.Parse("2006-01-02", analyzeDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	syms := selectSymbols(a, analyzeTicker, analyzeSector)
	if len(syms) == 0 {
		return fmt.Errorf("no symbols matched the given filters")
	}

	results := a.orchestrator.Run(context.Background(), syms, date, func(ticker string, completed, total int) {
		fmt.Printf("\r[%d/%d] %s          ", completed, total, ticker)
	})
	fmt.Println()

	printResults(results)
	return nil
}

func selectSymbols(a *app, ticker, sector string) []contracts.Symbol {
	if ticker != "" {
		if sym, ok := a.list.Find(ticker); ok {
			return []contracts.Symbol{sym}
		}
		return nil
	}

	if sector == "" || sector == "All" {
		return a.list.Symbols
	}

	var out []contracts.Symbol
	for _, sym := range a.list.Symbols {
		if sym.Sector == sector {
			out = append(out, sym)
		}
	}
	return out
}

func printResults(results []contracts.AnalysisResult) {
	fmt.Printf("%-10s %10s %8s %8s %8s %8s %8s\n",
		"TICKER", "PRICE", "CHG%", "R1(T)", "R1(T-1)", "R1(T-2)", "R2(T)")

	for _, res := range results {
		if res.Failed() {
			fmt.Printf("%-10s  FAILED: %s\n", res.Symbol.Ticker, res.Err)
			continue
		}

		r1 := [3]string{"-", "-", "-"}
		r2 := "-"
		for i, rec := range res.Ratings {
			if i < 3 {
				r1[i] = fmt.Sprintf("%d", rec.Rating1)
			}
		}
		if cur, ok := res.Current(); ok {
			r2 = fmt.Sprintf("%d", cur.Rating2)
		}

		price := 0.0
		if res.Snapshot != nil {
			price = res.Snapshot.Price
		}

		stale := ""
		if res.Stale {
			stale = " (stale)"
		}

		fmt.Printf("%-10s %10.2f %7.2f%% %8s %8s %8s %8s%s\n",
			res.Symbol.Ticker, price, res.PriceChangePct, r1[0], r1[1], r1[2], r2, stale)
	}
}
