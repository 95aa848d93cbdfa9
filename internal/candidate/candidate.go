// Package candidate turns source-specific raw records into normalized
// candidate transactions.
package candidate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind is the direction of money movement.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// ParseKind accepts a kind in any letter case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIncome, KindExpense:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", s)
	}
}

// SourceKind identifies which collaborator produced a record.
type SourceKind string

const (
	SourceInboxScan    SourceKind = "inbox_scan"
	SourceDocumentScan SourceKind = "document_scan"
	SourceManual       SourceKind = "manual"
)

// ParseSourceKind accepts both underscore and hyphen spellings.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))

	switch k {
	case SourceInboxScan, SourceDocumentScan, SourceManual:
		return k, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Transaction is a normalized candidate. It is never persisted on its own.
type Transaction struct {
	OwnerID     string
	OccurredAt  time.Time
	Description string
	Amount      int64 // minor units, always positive
	Kind        Kind
	Source      SourceKind
	SourceRef   string // audit only, never part of dedup
}

// RawAmount holds an amount exactly as the collaborator reported it.
// It decodes from either a JSON number or a JSON string.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*a = RawAmount(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or string: %w", err)
	}

	*a = RawAmount(n.String())

	return nil
}

// RawRecord is the shape collaborators hand to the core.
type RawRecord struct {
	OwnerID     string    `json:"owner_id"`
	OccurredAt  string    `json:"occurred_at"`
	Description string    `json:"description"`
	Amount      RawAmount `json:"amount"`
	// Kind is set when the source states the direction explicitly.
	Kind string `json:"kind,omitempty"`
	// InferredKind is the collaborator's own guess from sign or keywords.
	InferredKind string `json:"inferred_kind,omitempty"`
	SourceRef    string `json:"source_ref,omitempty"`
}
