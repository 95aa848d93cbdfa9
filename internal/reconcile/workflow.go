// Package reconcile drives the human review of staged transactions and the
// manual entry path into the canonical ledger.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

var ErrDescriptionRequired = errors.New("description is required")

//go:generate mockgen -source=workflow.go -destination=workflow_mock.go -package=reconcile
type Repository interface {
	BeginReview(ctx context.Context) (ReviewTx, error)
}

// ReviewTx applies a staging transition and its ledger write as one unit.
type ReviewTx interface {
	Transition(ctx context.Context, ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, error)
	Insert(ctx context.Context, tx *ledger.Transaction) (bool, error)
	Commit() error
	Rollback() error
}

type Matcher interface {
	Learn(ctx context.Context, ownerID, rawPattern, preferredDescription string) error
}

type Workflow struct {
	repo       Repository
	ledger     ledger.Repository
	drafts     *staging.Service
	matcher    Matcher
	normalizer *candidate.Normalizer
	now        func() time.Time
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// NewWorkflow wires the review workflow. matcher may be nil.
func NewWorkflow(repo Repository, ledgerRepo ledger.Repository, drafts *staging.Service, matcher Matcher, opts ...Option) *Workflow {
	w := &Workflow{
		repo:    repo,
		ledger:  ledgerRepo,
		drafts:  drafts,
		matcher: matcher,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.normalizer = candidate.NewNormalizer(w.now)

	return w
}

func (w *Workflow) ListAwaiting(ctx context.Context, ownerID string) ([]staging.Draft, error) {
	return w.drafts.ListAwaiting(ctx, ownerID)
}

// Approve confirms a pending item under the human-supplied description.
// A ledger record that already holds the fingerprint counts as success.
func (w *Workflow) Approve(ctx context.Context, ownerID string, id uuid.UUID, description string) (*ledger.Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	rtx, err := w.repo.BeginReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin review: %w", err)
	}
	defer rtx.Rollback()

	p, err := rtx.Transition(ctx, ownerID, id, staging.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("approve pending transaction: %w", err)
	}

	c := p.Transaction
	c.Description = description

	tx := ledger.NewTransaction(c, p.Fingerprint, ledger.OriginHumanApproved, w.now())

	created, err := rtx.Insert(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("commit canonical transaction: %w", err)
	}

	if err := rtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("owner_id", ownerID).
		Str("pending_id", id.String()).
		Str("fingerprint", p.Fingerprint.Short()).
		Bool("created", created).
		Msg("pending transaction approved")

	if w.matcher != nil {
		if err := w.matcher.Learn(ctx, ownerID, p.Description, description); err != nil {
			log.Warn().Err(err).Str("pending_id", id.String()).Msg("learning description mapping failed")
		}
	}

	return tx, nil
}

// Reject closes a pending item without touching the ledger.
func (w *Workflow) Reject(ctx context.Context, ownerID string, id uuid.UUID) error {
	rtx, err := w.repo.BeginReview(ctx)
	if err != nil {
		return fmt.Errorf("begin review: %w", err)
	}
	defer rtx.Rollback()

	if _, err := rtx.Transition(ctx, ownerID, id, staging.StatusRejected); err != nil {
		return fmt.Errorf("reject pending transaction: %w", err)
	}

	if err := rtx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("owner_id", ownerID).
		Str("pending_id", id.String()).
		Msg("pending transaction rejected")

	return nil
}

// EnterManual commits a user-typed transaction straight to the ledger.
// created is false when the same event is already canonical.
func (w *Workflow) EnterManual(ctx context.Context, raw candidate.RawRecord) (*ledger.Transaction, bool, error) {
	c, err := w.normalizer.Normalize(raw, candidate.SourceManual)
	if err != nil {
		return nil, false, err
	}

	fp := fingerprint.Compute(c)
	tx := ledger.NewTransaction(c, fp, ledger.OriginManualEntry, w.now())

	created, err := w.ledger.Insert(ctx, tx)
	if err != nil {
		return nil, false, fmt.Errorf("commit manual entry: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("owner_id", c.OwnerID).
		Str("fingerprint", fp.Short()).
		Bool("created", created).
		Msg("manual entry committed")

	return tx, created, nil
}
