// Package ledger holds the canonical, user-confirmed transactions.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
)

var (
	ErrNotFound           = errors.New("canonical transaction not found")
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)

// Origin records how a transaction entered the ledger.
type Origin string

const (
	OriginAutoApproved  Origin = "auto_approved"
	OriginHumanApproved Origin = "human_approved"
	OriginManualEntry   Origin = "manual_entry"
)

// Transaction is a confirmed ledger entry. The pipeline never mutates one
// after it is stored.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     string
	OccurredAt  time.Time
	Description string
	Amount      int64 // minor units
	Kind        candidate.Kind
	Source      candidate.SourceKind
	Fingerprint fingerprint.Fingerprint
	ConfirmedAt time.Time
	Origin      Origin
}

// NewTransaction builds a ledger entry from a candidate. SourceRef is dropped.
func NewTransaction(c candidate.Transaction, fp fingerprint.Fingerprint, origin Origin, now time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		OwnerID:     c.OwnerID,
		OccurredAt:  c.OccurredAt,
		Description: c.Description,
		Amount:      c.Amount,
		Kind:        c.Kind,
		Source:      c.Source,
		Fingerprint: fp,
		ConfirmedAt: now.UTC(),
		Origin:      origin,
	}
}
