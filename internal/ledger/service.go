package ledger

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	// Insert stores tx unless the owner already has a record with the same
	// fingerprint. On conflict tx is overwritten with the existing record and
	// created is false.
	Insert(ctx context.Context, tx *Transaction) (created bool, err error)
	FindByFingerprint(ctx context.Context, ownerID string, fp fingerprint.Fingerprint) (*Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

type ListFilter struct {
	OwnerID   string
	StartDate *time.Time
	EndDate   *time.Time
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, ownerID string, fp fingerprint.Fingerprint) (*Transaction, error) {
	return s.repo.FindByFingerprint(ctx, ownerID, fp)
}
