package cgd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
)

type amountLayout int

const (
	// signedColumn carries one amount per row, negative for money out.
	signedColumn amountLayout = iota
	// debitCredit splits money out and money in across two columns.
	debitCredit
)

const dateLayout = "02-01-2006"

// Profile maps one CGD export format onto raw records.
type Profile struct {
	Name      string
	DateCol   string
	DescCol   string
	Layout    amountLayout
	AmountCol string
	DebitCol  string
	CreditCol string
}

func (p *Profile) columns() []string {
	if p.Layout == debitCredit {
		return []string{p.DateCol, p.DescCol, p.DebitCol, p.CreditCol}
	}

	return []string{p.DateCol, p.DescCol, p.AmountCol}
}

func (p *Profile) matches(cols colIndex) bool {
	for _, name := range p.columns() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// sourceRef points a batch error back at the file row, 1-based.
func (p *Profile) sourceRef(rowNum int) string {
	return fmt.Sprintf("cgd:%s:row %d", p.Name, rowNum)
}

// record converts one data row. Rows without a parseable date or a non-zero
// movement (footers, balances, blank lines) are skipped. The description is
// passed through even when empty so normalization reports it.
func (p *Profile) record(cols colIndex, row []string, rowNum int) (candidate.RawRecord, bool) {
	date, err := time.Parse(dateLayout, cellValue(row, cols[p.DateCol]))
	if err != nil {
		return candidate.RawRecord{}, false
	}

	amount, kind, ok := p.movement(cols, row)
	if !ok {
		return candidate.RawRecord{}, false
	}

	return candidate.RawRecord{
		OccurredAt:   date.Format(time.DateOnly),
		Description:  cellValue(row, cols[p.DescCol]),
		Amount:       candidate.RawAmount(amount.StringFixed(2)),
		InferredKind: string(kind),
		SourceRef:    p.sourceRef(rowNum),
	}, true
}

// movement returns the unsigned amount and the kind implied by its sign or
// by the column it sits in.
func (p *Profile) movement(cols colIndex, row []string) (decimal.Decimal, candidate.Kind, bool) {
	switch p.Layout {
	case signedColumn:
		if d, ok := amountCell(row, cols[p.AmountCol]); ok {
			return d.Abs(), kindOf(d), true
		}
	case debitCredit:
		if d, ok := amountCell(row, cols[p.DebitCol]); ok {
			return d.Abs(), candidate.KindExpense, true
		}

		if d, ok := amountCell(row, cols[p.CreditCol]); ok {
			return d.Abs(), candidate.KindIncome, true
		}
	}

	return decimal.Zero, "", false
}

func kindOf(d decimal.Decimal) candidate.Kind {
	if d.IsNegative() {
		return candidate.KindExpense
	}

	return candidate.KindIncome
}

func amountCell(row []string, idx int) (decimal.Decimal, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

// profiles is tried in order; the card export shares columns with the others
// and goes first.
var profiles = []Profile{
	{
		Name:      "cartão",
		DateCol:   "Data",
		DescCol:   "Descrição",
		Layout:    debitCredit,
		DebitCol:  "Débito",
		CreditCol: "Crédito",
	},
	{
		Name:      "extrato",
		DateCol:   "Data mov.",
		DescCol:   "Descrição",
		Layout:    signedColumn,
		AmountCol: "Movimento",
	},
	{
		Name:      "conta",
		DateCol:   "Data mov.",
		DescCol:   "Descrição",
		Layout:    signedColumn,
		AmountCol: "Montante",
	},
}
