package staging

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=staging
type Repository interface {
	// Put stores a new awaiting item. It returns ErrAlreadyAwaiting when the
	// owner already has an awaiting item with the same fingerprint.
	Put(ctx context.Context, p *PendingTransaction) error
	// Get returns the most recently staged item for the fingerprint.
	Get(ctx context.Context, ownerID string, fp fingerprint.Fingerprint) (*PendingTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PendingTransaction, error)
	// ListAwaiting returns the owner's awaiting items, newest first.
	ListAwaiting(ctx context.Context, ownerID string) ([]*PendingTransaction, error)
	// Transition moves the owner's awaiting item to a terminal status. An item
	// held by another owner is reported as ErrNotFound whatever its status.
	Transition(ctx context.Context, ownerID string, id uuid.UUID, to Status) (*PendingTransaction, error)
}

type Suggester interface {
	Suggest(ctx context.Context, ownerID, rawDescription string) (string, error)
}

type Service struct {
	repo      Repository
	suggester Suggester
}

// NewService builds the review listing. suggester may be nil.
func NewService(repo Repository, suggester Suggester) *Service {
	return &Service{repo: repo, suggester: suggester}
}

// ListAwaiting returns drafts for the owner's awaiting items. A failing
// suggestion lookup leaves Suggested empty.
func (s *Service) ListAwaiting(ctx context.Context, ownerID string) ([]Draft, error) {
	items, err := s.repo.ListAwaiting(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	drafts := make([]Draft, 0, len(items))

	for _, p := range items {
		d := Draft{PendingTransaction: p}

		if s.suggester != nil {
			suggested, err := s.suggester.Suggest(ctx, ownerID, p.Description)
			if err != nil {
				logger.FromContext(ctx).Warn().Err(err).
					Str("pending_id", p.ID.String()).
					Msg("description suggestion failed")
			} else {
				d.Suggested = suggested
			}
		}

		drafts = append(drafts, d)
	}

	return drafts, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PendingTransaction, error) {
	return s.repo.GetByID(ctx, id)
}
