package commands

import (
	"fmt"

	"github.com/wonny/tatracker/internal/analysis"
	"github.com/wonny/tatracker/internal/external/sheets"
	"github.com/wonny/tatracker/internal/external/tcbs"
	"github.com/wonny/tatracker/internal/external/vci"
	"github.com/wonny/tatracker/internal/external/yahoo"
	"github.com/wonny/tatracker/internal/marketdata"
	"github.com/wonny/tatracker/internal/stocklist"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/httputil"
	"github.com/wonny/tatracker/pkg/logger"
)

// app bundles the wired pipeline shared by the commands.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	cache        *marketdata.Cache
	router       *marketdata.Router
	analyzer     *analysis.Analyzer
	orchestrator *analysis.Orchestrator
	list         *stocklist.List
}

// setup loads config and wires the data pipeline end to end.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if watchlistPath != "" {
		cfg.Analysis.Watchlist = watchlistPath
	}

	log := logger.New(cfg)

	httpClient := httputil.New(cfg, log)

	providers := marketdata.Providers{
		TCBS:   tcbs.NewClient(cfg, httpClient, log),
		VCI:    vci.NewClient(cfg, httpClient, log),
		Sheets: sheets.NewClient(cfg, httpClient, log),
		Yahoo:  yahoo.NewClient(cfg, httpClient, log),
	}

	cache := marketdata.NewCache(cfg, log)
	router := marketdata.NewRouter(cfg, cache, providers, log)
	analyzer := analysis.NewAnalyzer(cfg, router, log)
	orchestrator := analysis.NewOrchestrator(cfg, analyzer, log)

	list, err := stocklist.Load(cfg.Analysis.Watchlist)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	return &app{
		cfg:          cfg,
		log:          log,
		cache:        cache,
		router:       router,
		analyzer:     analyzer,
		orchestrator: orchestrator,
		list:         list,
	}, nil
}
