package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	ledgerstore "github.com/MrJamesThe3rd/ledgerflow/internal/ledger/store"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
	stagingstore "github.com/MrJamesThe3rd/ledgerflow/internal/staging/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type reviewTx struct {
	tx      *sql.Tx
	staging *stagingstore.Store
	ledger  *ledgerstore.Store
}

// BeginReview opens a database transaction shared by the staging and ledger
// stores, so a transition and its canonical insert commit together.
func (s *Store) BeginReview(ctx context.Context) (reconcile.ReviewTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning review tx: %w: %w", staging.ErrStorageUnavailable, err)
	}

	return &reviewTx{
		tx:      dbTx,
		staging: stagingstore.New(dbTx),
		ledger:  ledgerstore.New(dbTx),
	}, nil
}

func (r *reviewTx) Commit() error   { return r.tx.Commit() }
func (r *reviewTx) Rollback() error { return r.tx.Rollback() }

func (r *reviewTx) Transition(ctx context.Context, ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, error) {
	return r.staging.Transition(ctx, ownerID, id, to)
}

func (r *reviewTx) Insert(ctx context.Context, tx *ledger.Transaction) (bool, error) {
	return r.ledger.Insert(ctx, tx)
}
