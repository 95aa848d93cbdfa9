// Package staging holds candidates that passed the dedup gate and wait for
// a human decision.
package staging

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
)

var (
	ErrNotFound           = errors.New("pending transaction not found")
	ErrAlreadyAwaiting    = errors.New("an awaiting item with this fingerprint already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("staging storage unavailable")
)

// Status represents the review state of a pending transaction.
type Status string

const (
	StatusAwaiting Status = "awaiting"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PendingTransaction is a staged candidate. Terminal rows are kept for audit.
type PendingTransaction struct {
	ID uuid.UUID
	candidate.Transaction
	Fingerprint fingerprint.Fingerprint
	StagedAt    time.Time
	Status      Status
	DecidedAt   *time.Time
}

func NewPending(c candidate.Transaction, fp fingerprint.Fingerprint, now time.Time) *PendingTransaction {
	return &PendingTransaction{
		ID:          uuid.New(),
		Transaction: c,
		Fingerprint: fp,
		StagedAt:    now.UTC(),
		Status:      StatusAwaiting,
	}
}

// Draft is an awaiting item paired with a learned description suggestion.
type Draft struct {
	*PendingTransaction
	Suggested string
}
