package candidate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNormalization matches every *NormalizationError.
var ErrNormalization = errors.New("normalization failed")

// NormalizationError reports the first field of a raw record that could not be normalized.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

var dateLayouts = []string{
	time.RFC3339,
	time.DateOnly,
	"02-01-2006",
	"02/01/2006",
	"02-Jan-06",
	"02-Jan-2006",
}

var maxMinorUnits = decimal.NewFromInt(1 << 53)

var currencySymbols = []string{"₹", "€", "$", "£", "EUR", "USD", "GBP", "INR", "Rs."}

// Normalizer converts raw records. Its clock only supplies the default date
// for manual entries.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}

	return &Normalizer{now: now}
}

func (n *Normalizer) Normalize(raw RawRecord, source SourceKind) (Transaction, error) {
	owner := strings.TrimSpace(raw.OwnerID)
	if owner == "" {
		return Transaction{}, &NormalizationError{Field: "owner_id", Reason: "missing"}
	}

	desc := strings.TrimSpace(raw.Description)
	if desc == "" {
		return Transaction{}, &NormalizationError{Field: "description", Reason: "empty after trimming"}
	}

	amount, err := parseAmount(string(raw.Amount))
	if err != nil {
		return Transaction{}, &NormalizationError{Field: "amount", Reason: err.Error()}
	}

	kind, err := resolveKind(raw)
	if err != nil {
		return Transaction{}, &NormalizationError{Field: "kind", Reason: err.Error()}
	}

	occurred, err := n.resolveDate(raw.OccurredAt, source)
	if err != nil {
		return Transaction{}, &NormalizationError{Field: "occurred_at", Reason: err.Error()}
	}

	return Transaction{
		OwnerID:     owner,
		OccurredAt:  occurred,
		Description: desc,
		Amount:      amount,
		Kind:        kind,
		Source:      source,
		SourceRef:   strings.TrimSpace(raw.SourceRef),
	}, nil
}

// parseAmount returns the amount in minor units, rounded to two decimals.
func parseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		clean = strings.TrimPrefix(clean, sym)
	}

	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.Join(strings.Fields(clean), "")

	if clean == "" {
		return 0, errors.New("missing")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsPositive() {
		return 0, fmt.Errorf("must be positive, got %s", d.String())
	}

	if cents.GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("out of range: %s", d.String())
	}

	return cents.IntPart(), nil
}

func resolveKind(raw RawRecord) (Kind, error) {
	k := raw.Kind
	if strings.TrimSpace(k) == "" {
		k = raw.InferredKind
	}

	if strings.TrimSpace(k) == "" {
		return "", errors.New("missing and not inferable")
	}

	return ParseKind(k)
}

func (n *Normalizer) resolveDate(s string, source SourceKind) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if source == SourceManual {
			return dateOnly(n.now()), nil
		}

		return time.Time{}, errors.New("missing")
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return dateOnly(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// dateOnly keeps the calendar date as reported, dropping time of day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
