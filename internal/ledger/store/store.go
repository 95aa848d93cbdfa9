package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/database"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
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
	id, owner_id, occurred_at, description, amount, kind, source, fingerprint, origin, confirmed_at
`

func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction

	var kind, source, fp, origin string

	if err := s.Scan(
		&tx.ID, &tx.OwnerID, &tx.OccurredAt, &tx.Description, &tx.Amount,
		&kind, &source, &fp, &origin, &tx.ConfirmedAt,
	); err != nil {
		return nil, err
	}

	tx.Kind = candidate.Kind(kind)
	tx.Source = candidate.SourceKind(source)
	tx.Fingerprint = fingerprint.Fingerprint(fp)
	tx.Origin = ledger.Origin(origin)

	return &tx, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ledger.ErrStorageUnavailable, err)
}

func (s *Store) Insert(ctx context.Context, tx *ledger.Transaction) (bool, error) {
	query := `
		INSERT INTO canonical_transactions
			(id, owner_id, occurred_at, description, amount, kind, source, fingerprint, origin, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id, fingerprint) DO NOTHING
		RETURNING id
	`

	var id any

	err := s.db.QueryRowContext(ctx, query,
		tx.ID,
		tx.OwnerID,
		tx.OccurredAt,
		tx.Description,
		tx.Amount,
		tx.Kind,
		tx.Source,
		tx.Fingerprint,
		tx.Origin,
		tx.ConfirmedAt,
	).Scan(&id)
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return false, unavailable("inserting canonical transaction", err)
	}

	existing, err := s.FindByFingerprint(ctx, tx.OwnerID, tx.Fingerprint)
	if err != nil {
		return false, fmt.Errorf("loading conflicting transaction: %w", err)
	}

	*tx = *existing

	return false, nil
}

func (s *Store) FindByFingerprint(ctx context.Context, ownerID string, fp fingerprint.Fingerprint) (*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM canonical_transactions
		WHERE owner_id = $1 AND fingerprint = $2`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, ownerID, fp))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, unavailable("finding canonical transaction", err)
	}

	return tx, nil
}

func (s *Store) List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM canonical_transactions
		WHERE owner_id = $1`

	args := []any{filter.OwnerID}
	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY occurred_at ASC, confirmed_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("listing canonical transactions", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning canonical transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating canonical transactions", err)
	}

	return txs, nil
}
