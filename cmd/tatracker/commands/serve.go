package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/tatracker/internal/api"
	"github.com/wonny/tatracker/internal/api/handlers"
	"github.com/wonny/tatracker/internal/rating"
	"github.com/wonny/tatracker/internal/scheduler"
	"github.com/wonny/tatracker/internal/scheduler/jobs"
	"github.com/wonny/tatracker/pkg/database"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server with the daily refresh schedule",
	Long: `Starts the REST API server, the websocket progress feed and the
daily watchlist refresh job.

Endpoints:
  GET  /health                 - Health check
  GET  /metrics                - Prometheus metrics
  GET  /api/analysis           - Latest batch results
  POST /api/analysis/refresh   - Trigger a new batch run
  GET  /api/stocklist          - Tracked universe
  GET  /api/history/{ticker}   - Rating history
  GET  /ws/progress            - Batch progress push

Example:
  go run ./cmd/tatracker serve
  go run ./cmd/tatracker serve --port 8091`,
	RunE: runServe,
}

var (
	servePort     string
	serveSchedule string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
	serveCmd.Flags().StringVar(&serveSchedule, "refresh-schedule", "0 30 15 * * MON-FRI",
		"cron schedule for the daily watchlist refresh")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	if servePort != "" {
		a.cfg.Port = servePort
	}

	log := a.log

	// Rating history persistence is optional.
	var historyStore handlers.HistoryStore
	var ratingStore jobs.RatingStore
	if a.cfg.Database.Enabled() {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := rating.NewRepository(db.Pool)

		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("prepare ratings schema: %w", err)
		}

		historyStore = repo
		ratingStore = repo
		log.Info("Connected to database")
	} else {
		log.Info("No database configured, rating history kept in memory only")
	}

	hub := api.NewProgressHub(log)
	progress := func(ticker string, completed, total int) {
		hub.Broadcast(api.ProgressEvent{
			Ticker:    ticker,
			Completed: completed,
			Total:     total,
			Done:      completed == total,
		})
	}

	analysisHandler := handlers.NewAnalysisHandler(
		a.orchestrator, a.list, a.cache, historyStore, progress, log)

	router := api.NewRouter(a.cfg, analysisHandler, hub, log)
	server := api.New(a.cfg, log, router)

	// Daily refresh after the HOSE close.
	sched := scheduler.New(log)
	refresh := jobs.NewRefreshJob(a.orchestrator, a.cache, ratingStore,
		a.list.Symbols, analysisHandler.SeedResults, serveSchedule, log)
	if err := sched.AddJob(refresh); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s (%d symbols tracked)\n",
		a.cfg.Port, len(a.list.Symbols))
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
