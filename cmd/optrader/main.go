package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/mautomic/optrader/internal/alert"
	"github.com/mautomic/optrader/internal/config"
	"github.com/mautomic/optrader/internal/dashboard"
	"github.com/mautomic/optrader/internal/feed"
	"github.com/mautomic/optrader/internal/hedge"
	"github.com/mautomic/optrader/internal/portfolio"
	"github.com/mautomic/optrader/internal/queue"
	"github.com/mautomic/optrader/internal/retry"
	"github.com/mautomic/optrader/internal/scheduler"
	sig "github.com/mautomic/optrader/internal/signal"
	"github.com/mautomic/optrader/internal/storage"
	"github.com/mautomic/optrader/internal/strategy"
	"github.com/mautomic/optrader/internal/trader"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[OPTRADER] ", log.LstdFlags|log.Lshortfile)
	if cfg.IsReplay() {
		logger.Printf("Starting in replay mode for %s", cfg.Scanner.ReplayDate)
	} else {
		logger.Printf("Starting in live mode, scanning %v every %s", cfg.Tickers, cfg.GetScanInterval())
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("Error closing storage: %v", err)
		}
	}()

	clock := scheduler.NewRealClock()
	q := queue.New(logger)
	managers := buildManagers(cfg, store, clock, logger)

	var fetcher scheduler.Fetcher
	if cfg.IsReplay() {
		fetcher = scheduler.NewReplayFetcher(store.Archive(), q, managers,
			cfg.Tickers, cfg.Scanner.ReplayDate, logger)
	} else {
		dataFeed := feed.NewCircuitBreakerFeed(
			retry.NewFeed(
				feed.NewClient(cfg.Feed.APIKey, cfg.Feed.APIEndpoint, cfg.GetFeedTimeout()),
				logger,
			),
			logger,
		)
		fetcher = scheduler.NewLiveFetcher(dataFeed, q, managers, store.Archive(),
			cfg.Tickers, scheduler.LiveConfig{
				Interval:            cfg.GetScanInterval(),
				MaxDaysToExpiration: cfg.Scanner.MaxDTE,
				StrikeCount:         cfg.Scanner.StrikeCount,
				BatchSize:           cfg.Scanner.BatchSize,
				RequestsPerSecond:   cfg.Scanner.RequestsPerSecond,
			}, clock, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Shutdown signal received, stopping engine...")
		cancel()
	}()

	if cfg.Dashboard.Enabled {
		startDashboard(cfg, managers, logger)
	}

	eodHour, eodMinute, eodEnabled := cfg.GetEODTime()
	engine := trader.New(q, fetcher, managers, alert.NewLogAlerter(logger), clock, trader.Config{
		Replay:     cfg.IsReplay(),
		EODEnabled: eodEnabled,
		EODHour:    eodHour,
		EODMinute:  eodMinute,
		Location:   cfg.ReportLocation(),
	}, logger)

	if err := engine.Run(ctx); err != nil {
		logger.Fatalf("Engine error: %v", err)
	}
	logger.Println("Engine stopped successfully")
}

// buildManagers assembles the unusual-volume portfolio. Replay runs trade a
// separate position collection so recorded days never contaminate the live
// book.
func buildManagers(cfg *config.Config, store *storage.SQLiteStore, clock scheduler.Clock, logger *log.Logger) []*portfolio.Manager {
	name := "unusual-volume"
	if cfg.IsReplay() {
		name += "-replay-" + cfg.Scanner.ReplayDate
	}
	positions := store.Positions(name)
	today := func() string { return clock.Now().Format("2006-01-02") }

	var hedger hedge.Hedger = hedge.NoopHedger{}
	if cfg.Portfolio.Hedge.Enabled {
		hedger = hedge.NewDeltaHedger(cfg.Portfolio.Hedge.Skew, logger, today)
	}

	strat := strategy.NewUnusualVolumeStrategy(
		strategy.NewBaseStrategy(positions, cfg.Portfolio.CommissionPerContract, logger, today),
		[]sig.EntrySignal{sig.NewPricingEntrySignal(cfg.Portfolio.MinVolatility, cfg.Portfolio.RiskFreeRate)},
		[]sig.ExitSignal{sig.ExpiryExitSignal{}},
		hedger,
		cfg.Tickers,
		logger,
	)

	return []*portfolio.Manager{portfolio.NewManager(name, strat, positions, logger)}
}

func startDashboard(cfg *config.Config, managers []*portfolio.Manager, logger *log.Logger) {
	dashLogger := logrus.New()
	if cfg.Environment.LogLevel == "debug" {
		dashLogger.SetLevel(logrus.DebugLevel)
	}
	server := dashboard.NewServer(dashboard.Config{Port: cfg.Dashboard.Port}, managers, dashLogger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Printf("Dashboard server stopped: %v", err)
		}
	}()
}
