package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerflow/internal/app"
	"github.com/MrJamesThe3rd/ledgerflow/internal/config"
	ledgerHttp "github.com/MrJamesThe3rd/ledgerflow/internal/http"
	batchHandler "github.com/MrJamesThe3rd/ledgerflow/internal/http/batch"
	importHandler "github.com/MrJamesThe3rd/ledgerflow/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/ledgerflow/internal/http/matching"
	pendingHandler "github.com/MrJamesThe3rd/ledgerflow/internal/http/pending"
	txHandler "github.com/MrJamesThe3rd/ledgerflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateAuth(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.LogLevel, logger.Format(cfg.App.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithContext(ctx, log)

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer a.Close()

	router := ledgerHttp.New(ledgerHttp.Options{
		Logger:         log,
		AuthSecret:     []byte(cfg.Auth.Secret),
		AuthDisabled:   cfg.Auth.Disabled,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	}, ledgerHttp.Handlers{
		Transactions: txHandler.NewHandler(a.Ledger, a.Workflow),
		Pending:      pendingHandler.NewHandler(a.Workflow),
		Batches:      batchHandler.NewHandler(a.Ingest),
		Import:       importHandler.NewHandler(a.Importer, a.Ingest),
		Matching:     matchingHandler.NewHandler(a.Matching),
	})

	if cfg.Auth.Disabled {
		log.Warn().Msg("authentication disabled, trusting the X-Owner-ID header")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("backend", string(cfg.Ingest.Backend)).Msg("starting server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
