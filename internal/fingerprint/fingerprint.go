// Package fingerprint derives the content hash that identifies one
// real-world transaction regardless of which source reported it.
//
// The digest covers owner, calendar date, folded description, amount and
// kind. Source kind, source reference and time of day are deliberately
// excluded. Changing anything in this file changes every stored
// fingerprint, so the canonical form is versioned by the prefix below.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
)

// Fingerprint is a lower-case hex SHA-256 digest.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// Short returns a prefix suitable for log lines.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}

	return string(f[:12])
}

const (
	version   = "v1"
	separator = "\x1f"
)

// Compute never fails and depends only on its argument.
func Compute(c candidate.Transaction) Fingerprint {
	parts := []string{
		version,
		c.OwnerID,
		c.OccurredAt.Format(time.DateOnly),
		Fold(c.Description),
		FixedPoint(c.Amount),
		string(c.Kind),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))

	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Fold normalizes a description so trivial formatting differences between
// sources compare equal: NFKC, Unicode case folding, collapsed whitespace.
// A Caser is not safe for concurrent use, so each call builds its own.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)

	return strings.Join(strings.Fields(s), " ")
}

// FixedPoint renders minor units with exactly two decimals.
func FixedPoint(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
