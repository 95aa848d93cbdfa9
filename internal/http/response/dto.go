package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
)

type Transaction struct {
	ID          uuid.UUID            `json:"id"`
	OccurredAt  string               `json:"occurred_at"`
	Description string               `json:"description"`
	Amount      int64                `json:"amount"`
	Kind        candidate.Kind       `json:"kind"`
	Source      candidate.SourceKind `json:"source"`
	Fingerprint string               `json:"fingerprint"`
	Origin      ledger.Origin        `json:"origin"`
	ConfirmedAt time.Time            `json:"confirmed_at"`
}

func NewTransaction(tx *ledger.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID,
		OccurredAt:  tx.OccurredAt.Format(time.DateOnly),
		Description: tx.Description,
		Amount:      tx.Amount,
		Kind:        tx.Kind,
		Source:      tx.Source,
		Fingerprint: tx.Fingerprint.String(),
		Origin:      tx.Origin,
		ConfirmedAt: tx.ConfirmedAt,
	}
}

func NewTransactionList(txs []*ledger.Transaction) []Transaction {
	resp := make([]Transaction, len(txs))
	for i, tx := range txs {
		resp[i] = NewTransaction(tx)
	}

	return resp
}

type ItemError struct {
	Index     int    `json:"index"`
	SourceRef string `json:"source_ref,omitempty"`
	Reason    string `json:"reason"`
	Retryable bool   `json:"retryable"`
}

type Batch struct {
	ID                string               `json:"batch_id"`
	Source            candidate.SourceKind `json:"source"`
	Total             int                  `json:"total"`
	Staged            int                  `json:"staged"`
	Duplicate         int                  `json:"duplicate"`
	Failed            int                  `json:"failed"`
	RetryableFailures int                  `json:"retryable_failures,omitempty"`
	Errors            []ItemError          `json:"errors"`
	ErrorsDropped     int                  `json:"errors_dropped,omitempty"`
	Canceled          bool                 `json:"canceled,omitempty"`
}

func NewBatch(b *ingest.Batch) Batch {
	errs := make([]ItemError, 0, len(b.Errors))
	for _, e := range b.Errors {
		errs = append(errs, ItemError(e))
	}

	return Batch{
		ID:                b.ID,
		Source:            b.Source,
		Total:             b.Total,
		Staged:            b.Staged,
		Duplicate:         b.Duplicate,
		Failed:            b.Failed,
		RetryableFailures: b.RetryableFailures,
		Errors:            errs,
		ErrorsDropped:     b.ErrorsDropped,
		Canceled:          b.Canceled,
	}
}
