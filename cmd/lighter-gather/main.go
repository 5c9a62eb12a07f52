package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lighterdata/internal/config"
	"lighterdata/internal/gather"
	"lighterdata/internal/store"
	"lighterdata/internal/util"
	"lighterdata/pkg/lighter"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (defaults + env when empty)")
	flag.Parse()

	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("LIGHTER_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	client := lighter.New(lighter.Config{
		BaseURL: cfg.Lighter.BaseURL,
		Timeout: time.Duration(cfg.Lighter.TimeoutSeconds) * time.Second,
	}, logger)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	sstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer sstore.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !client.HealthCheck(ctx) {
		logger.Warn("api health check failed, gathering anyway", "baseURL", client.BaseURL())
	}

	g := gather.New(client, pstore, pstore, sstore, gather.Config{
		Markets:           cfg.Gather.Markets,
		CandleResolution:  cfg.Gather.CandleResolution,
		FundingResolution: cfg.Gather.FundingResolution,
		CountBack:         cfg.Gather.CountBack,
		RateLimitPerMin:   cfg.Gather.RateLimitPerMin,
	}, logger)

	logger.Info("starting lighter-gather",
		"markets", cfg.Gather.Markets,
		"candleResolution", cfg.Gather.CandleResolution,
		"fundingResolution", cfg.Gather.FundingResolution)

	if err := g.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}
