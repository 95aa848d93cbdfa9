// Package app assembles the pipeline services over the configured storage
// backend. Every command builds on it.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerflow/internal/config"
	"github.com/MrJamesThe3rd/ledgerflow/internal/database"
	"github.com/MrJamesThe3rd/ledgerflow/internal/dedup"
	"github.com/MrJamesThe3rd/ledgerflow/internal/importer"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/ledgerflow/internal/ledger/store"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/ledgerflow/internal/matching/store"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	reconcileStore "github.com/MrJamesThe3rd/ledgerflow/internal/reconcile/store"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
	stagingStore "github.com/MrJamesThe3rd/ledgerflow/internal/staging/store"
	"github.com/MrJamesThe3rd/ledgerflow/internal/storage/memory"
)

// Repositories is one storage backend seen through each component's port.
type Repositories struct {
	Staging  staging.Repository
	Ledger   ledger.Repository
	Review   reconcile.Repository
	Matching matching.Repository
}

// MemoryRepositories backs every port with one in-memory store.
func MemoryRepositories() Repositories {
	store := memory.New()

	return Repositories{
		Staging:  store,
		Ledger:   store,
		Review:   store,
		Matching: store,
	}
}

// PostgresRepositories backs every port with db.
func PostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Staging:  stagingStore.New(db),
		Ledger:   ledgerStore.New(db),
		Review:   reconcileStore.New(db),
		Matching: matchingStore.New(db),
	}
}

type App struct {
	Ingest   *ingest.Service
	Workflow *reconcile.Workflow
	Ledger   *ledger.Service
	Matching *matching.Service
	Importer *importer.Service

	db *sql.DB
}

// New wires the services over repos using the ingest settings from cfg.
func New(cfg *config.Config, repos Repositories) (*App, error) {
	policy, err := dedup.ParseRejectionPolicy(cfg.Ingest.RejectionPolicy)
	if err != nil {
		return nil, err
	}

	var (
		matchingService = matching.NewService(repos.Matching)
		gate            = dedup.NewGate(repos.Ledger, repos.Staging, dedup.WithRejectionPolicy(policy))
		drafts          = staging.NewService(repos.Staging, matchingService)
	)

	return &App{
		Ingest: ingest.NewService(gate,
			ingest.WithMaxErrors(cfg.Ingest.MaxErrors),
			ingest.WithConcurrency(cfg.Ingest.Concurrency),
			ingest.WithTimeout(cfg.Ingest.BatchTimeout),
		),
		Workflow: reconcile.NewWorkflow(repos.Review, repos.Ledger, drafts, matchingService),
		Ledger:   ledger.NewService(repos.Ledger),
		Matching: matchingService,
		Importer: importer.NewService(),
	}, nil
}

// Open connects the backend selected in cfg and wires the services on it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Ingest.Backend == config.BackendMemory {
		logger.FromContext(ctx).Warn().Msg("using in-memory storage, data is lost on restart")
		return New(cfg, MemoryRepositories())
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	a, err := New(cfg, PostgresRepositories(db))
	if err != nil {
		db.Close()
		return nil, err
	}

	a.db = db

	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}
