package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/database"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

type Store struct {
	db database.DBTX
}

// New accepts either a *sql.DB or a *sql.Tx.
func New(db database.DBTX) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	id, owner_id, occurred_at, description, amount, kind, source, source_ref,
	fingerprint, status, staged_at, decided_at
`

func scanPending(s scanner) (*staging.PendingTransaction, error) {
	var p staging.PendingTransaction

	var kind, source, fp, status string

	var decidedAt sql.NullTime

	if err := s.Scan(
		&p.ID, &p.OwnerID, &p.OccurredAt, &p.Description, &p.Amount,
		&kind, &source, &p.SourceRef,
		&fp, &status, &p.StagedAt, &decidedAt,
	); err != nil {
		return nil, err
	}

	p.Kind = candidate.Kind(kind)
	p.Source = candidate.SourceKind(source)
	p.Fingerprint = fingerprint.Fingerprint(fp)
	p.Status = staging.Status(status)

	if decidedAt.Valid {
		p.DecidedAt = &decidedAt.Time
	}

	return &p, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, staging.ErrStorageUnavailable, err)
}

// Put relies on the partial unique index over awaiting rows. The conflict
// target must repeat the index predicate for Postgres to infer it.
func (s *Store) Put(ctx context.Context, p *staging.PendingTransaction) error {
	query := `
		INSERT INTO pending_transactions
			(id, owner_id, occurred_at, description, amount, kind, source, source_ref, fingerprint, status, staged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'awaiting', $10)
		ON CONFLICT (owner_id, fingerprint) WHERE status = 'awaiting' DO NOTHING
		RETURNING id
	`

	var id uuid.UUID

	err := s.db.QueryRowContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.OccurredAt,
		p.Description,
		p.Amount,
		p.Kind,
		p.Source,
		p.SourceRef,
		p.Fingerprint,
		p.StagedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staging.ErrAlreadyAwaiting
		}

		return unavailable("staging transaction", err)
	}

	p.Status = staging.StatusAwaiting

	return nil
}

func (s *Store) Get(ctx context.Context, ownerID string, fp fingerprint.Fingerprint) (*staging.PendingTransaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM pending_transactions
		WHERE owner_id = $1 AND fingerprint = $2
		ORDER BY staged_at DESC
		LIMIT 1`

	p, err := scanPending(s.db.QueryRowContext(ctx, query, ownerID, fp))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, staging.ErrNotFound
		}

		return nil, unavailable("getting pending transaction", err)
	}

	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*staging.PendingTransaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM pending_transactions
		WHERE id = $1`

	p, err := scanPending(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, staging.ErrNotFound
		}

		return nil, unavailable("getting pending transaction", err)
	}

	return p, nil
}

func (s *Store) ListAwaiting(ctx context.Context, ownerID string) ([]*staging.PendingTransaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM pending_transactions
		WHERE owner_id = $1 AND status = 'awaiting'
		ORDER BY staged_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, unavailable("listing pending transactions", err)
	}
	defer rows.Close()

	var items []*staging.PendingTransaction

	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending transaction: %w", err)
		}

		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating pending transactions", err)
	}

	return items, nil
}

// Transition is a conditional update: only the owner's awaiting row moves.
// Concurrent callers race on the row lock and exactly one sees RETURNING
// produce a row.
func (s *Store) Transition(ctx context.Context, ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, error) {
	if !to.Terminal() {
		return nil, fmt.Errorf("%w: target %q", staging.ErrInvalidTransition, to)
	}

	query := `
		UPDATE pending_transactions
		SET status = $1, decided_at = NOW()
		WHERE id = $2 AND owner_id = $3 AND status = 'awaiting'
		RETURNING ` + selectColumns

	p, err := scanPending(s.db.QueryRowContext(ctx, query, to, id, ownerID))
	if err == nil {
		return p, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, unavailable("transitioning pending transaction", err)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.OwnerID != ownerID {
		return nil, staging.ErrNotFound
	}

	return nil, fmt.Errorf("%w: transaction already %s", staging.ErrInvalidTransition, current.Status)
}
