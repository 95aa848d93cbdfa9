package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

var errReviewDone = errors.New("review already committed or rolled back")

// reviewTx holds the store's write lock from BeginReview until Commit or
// Rollback. Rollback replays the undo log in reverse.
type reviewTx struct {
	s    *Store
	undo []func()
	done bool
}

func (s *Store) BeginReview(ctx context.Context) (reconcile.ReviewTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("beginning review: %w: %w", staging.ErrStorageUnavailable, err)
	}

	s.mu.Lock()

	return &reviewTx{s: s}, nil
}

func (r *reviewTx) Transition(_ context.Context, ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, error) {
	if r.done {
		return nil, errReviewDone
	}

	p, undo, err := r.s.transitionLocked(ownerID, id, to)
	if err != nil {
		return nil, err
	}

	r.undo = append(r.undo, undo)

	return p, nil
}

func (r *reviewTx) Insert(_ context.Context, tx *ledger.Transaction) (bool, error) {
	if r.done {
		return false, errReviewDone
	}

	created, undo := r.s.insertLocked(tx)
	r.undo = append(r.undo, undo)

	return created, nil
}

func (r *reviewTx) Commit() error {
	if r.done {
		return errReviewDone
	}

	r.done = true
	r.undo = nil
	r.s.mu.Unlock()

	return nil
}

// Rollback after Commit is a no-op so callers can defer it.
func (r *reviewTx) Rollback() error {
	if r.done {
		return nil
	}

	for i := len(r.undo) - 1; i >= 0; i-- {
		r.undo[i]()
	}

	r.done = true
	r.undo = nil
	r.s.mu.Unlock()

	return nil
}
