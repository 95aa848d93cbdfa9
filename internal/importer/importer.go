// Package importer turns bank statement exports into raw records for the
// document-scan feed.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

// Importer parses one bank's export format. Records carry no owner; the
// caller sets it.
type Importer interface {
	Parse(r io.Reader) ([]candidate.RawRecord, error)
}
