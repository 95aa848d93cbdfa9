// Package memory is a process-local backend for the staging store, the
// canonical ledger, review units of work and description mappings.
//
// A single RWMutex guards every map. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/matching"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

type key struct {
	owner string
	fp    fingerprint.Fingerprint
}

type Store struct {
	mu sync.RWMutex

	pending  map[uuid.UUID]*staging.PendingTransaction
	order    []uuid.UUID             // staging order
	history  map[key][]uuid.UUID     // staging order per fingerprint
	awaiting map[key]uuid.UUID       // at most one per key
	ledger   map[key]*ledger.Transaction
	mappings map[string][]matching.Mapping

	now func() time.Time
}

func New() *Store {
	return &Store{
		pending:  make(map[uuid.UUID]*staging.PendingTransaction),
		history:  make(map[key][]uuid.UUID),
		awaiting: make(map[key]uuid.UUID),
		ledger:   make(map[key]*ledger.Transaction),
		mappings: make(map[string][]matching.Mapping),
		now:      time.Now,
	}
}

var (
	_ staging.Repository   = (*Store)(nil)
	_ ledger.Repository    = (*Store)(nil)
	_ reconcile.Repository = (*Store)(nil)
	_ matching.Repository  = (*Store)(nil)
)

func copyPending(p *staging.PendingTransaction) *staging.PendingTransaction {
	cp := *p
	if p.DecidedAt != nil {
		cp.DecidedAt = new(*p.DecidedAt)
	}

	return &cp
}

func copyLedger(tx *ledger.Transaction) *ledger.Transaction {
	cp := *tx
	return &cp
}

// Staging

func (s *Store) Put(ctx context.Context, p *staging.PendingTransaction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("staging transaction: %w: %w", staging.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner: p.OwnerID, fp: p.Fingerprint}
	if _, exists := s.awaiting[k]; exists {
		return staging.ErrAlreadyAwaiting
	}

	p.Status = staging.StatusAwaiting
	p.DecidedAt = nil

	s.pending[p.ID] = copyPending(p)
	s.order = append(s.order, p.ID)
	s.history[k] = append(s.history[k], p.ID)
	s.awaiting[k] = p.ID

	return nil
}

func (s *Store) Get(_ context.Context, ownerID string, fp fingerprint.Fingerprint) (*staging.PendingTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.history[key{owner: ownerID, fp: fp}]
	if len(ids) == 0 {
		return nil, staging.ErrNotFound
	}

	return copyPending(s.pending[ids[len(ids)-1]]), nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*staging.PendingTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pending[id]
	if !ok {
		return nil, staging.ErrNotFound
	}

	return copyPending(p), nil
}

func (s *Store) ListAwaiting(_ context.Context, ownerID string) ([]*staging.PendingTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*staging.PendingTransaction

	for i := len(s.order) - 1; i >= 0; i-- {
		p := s.pending[s.order[i]]
		if p.OwnerID != ownerID || p.Status != staging.StatusAwaiting {
			continue
		}

		items = append(items, copyPending(p))
	}

	return items, nil
}

func (s *Store) Transition(_ context.Context, ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _, err := s.transitionLocked(ownerID, id, to)

	return p, err
}

// transitionLocked returns the updated copy and a function that reverts it.
func (s *Store) transitionLocked(ownerID string, id uuid.UUID, to staging.Status) (*staging.PendingTransaction, func(), error) {
	if !to.Terminal() {
		return nil, nil, fmt.Errorf("%w: target %q", staging.ErrInvalidTransition, to)
	}

	p, ok := s.pending[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil, staging.ErrNotFound
	}

	if p.Status != staging.StatusAwaiting {
		return nil, nil, fmt.Errorf("%w: transaction already %s", staging.ErrInvalidTransition, p.Status)
	}

	k := key{owner: p.OwnerID, fp: p.Fingerprint}

	p.Status = to
	p.DecidedAt = new(s.now().UTC())
	delete(s.awaiting, k)

	undo := func() {
		p.Status = staging.StatusAwaiting
		p.DecidedAt = nil
		s.awaiting[k] = id
	}

	return copyPending(p), undo, nil
}

// Ledger

func (s *Store) Insert(ctx context.Context, tx *ledger.Transaction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("inserting canonical transaction: %w: %w", ledger.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, _ := s.insertLocked(tx)

	return created, nil
}

func (s *Store) insertLocked(tx *ledger.Transaction) (bool, func()) {
	k := key{owner: tx.OwnerID, fp: tx.Fingerprint}

	if existing, ok := s.ledger[k]; ok {
		*tx = *copyLedger(existing)
		return false, func() {}
	}

	s.ledger[k] = copyLedger(tx)

	return true, func() { delete(s.ledger, k) }
}

func (s *Store) FindByFingerprint(_ context.Context, ownerID string, fp fingerprint.Fingerprint) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.ledger[key{owner: ownerID, fp: fp}]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return copyLedger(tx), nil
}

func (s *Store) List(_ context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []*ledger.Transaction

	for k, tx := range s.ledger {
		if k.owner != filter.OwnerID {
			continue
		}

		if filter.StartDate != nil && tx.OccurredAt.Before(*filter.StartDate) {
			continue
		}

		if filter.EndDate != nil && tx.OccurredAt.After(*filter.EndDate) {
			continue
		}

		txs = append(txs, copyLedger(tx))
	}

	slices.SortFunc(txs, func(a, b *ledger.Transaction) int {
		if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
			return c
		}

		return a.ConfirmedAt.Compare(b.ConfirmedAt)
	})

	return txs, nil
}

// Matching

func (s *Store) FindMatch(_ context.Context, ownerID, rawDescription string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw := strings.ToLower(rawDescription)

	var best *matching.Mapping

	for i := range s.mappings[ownerID] {
		m := &s.mappings[ownerID][i]
		if !strings.Contains(raw, strings.ToLower(m.RawPattern)) {
			continue
		}

		// Longest pattern wins, newest on a tie.
		if best == nil || len(m.RawPattern) >= len(best.RawPattern) {
			best = m
		}
	}

	if best == nil {
		return "", nil
	}

	return best.PreferredDescription, nil
}

func (s *Store) CreateMapping(_ context.Context, ownerID, rawPattern, preferredDescription string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings[ownerID] = append(s.mappings[ownerID], matching.Mapping{
		RawPattern:           rawPattern,
		PreferredDescription: preferredDescription,
		CreatedAt:            s.now().UTC(),
	})

	return nil
}

func (s *Store) ListMappings(_ context.Context, ownerID string) ([]matching.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mappings := slices.Clone(s.mappings[ownerID])
	slices.Reverse(mappings)

	return mappings, nil
}
