package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerflow/internal/app"
	"github.com/MrJamesThe3rd/ledgerflow/internal/config"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/scan"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.LogLevel, logger.Format(cfg.App.LogFormat))

	if len(cfg.Scan.Owners) == 0 {
		log.Fatal().Msg("SCAN_OWNERS is empty, nothing to scan")
	}

	if cfg.Ingest.Backend == config.BackendMemory {
		log.Warn().Msg("in-memory storage is private to this process, staged items are not visible to the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithContext(ctx, log)

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer a.Close()

	scanner := scan.NewScanner(
		scan.NewHTTPSource(cfg.Scan.BaseURL, cfg.Scan.Token, cfg.Scan.RequestTimeout),
		a.Ingest,
		cfg.Scan.Owners,
		cfg.Scan.Interval,
	)

	log.Info().
		Strs("owners", cfg.Scan.Owners).
		Dur("interval", cfg.Scan.Interval).
		Msg("starting inbox scanner")

	if err := scanner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("scanner stopped")
	}

	log.Info().Msg("worker exited")
}
