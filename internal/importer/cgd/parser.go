package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	enc "github.com/MrJamesThe3rd/ledgerflow/internal/encoding"
)

var errUnknownFormat = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser turns a CGD statement export into raw records for the
// document-scan feed. The export format is picked from the header row.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]candidate.RawRecord, error) {
	utf8r, charset, err := enc.Detect(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv (%s): %w", charset, err)
	}

	profile, cols, header := detectProfile(rows)
	if profile == nil {
		return nil, errUnknownFormat
	}

	var records []candidate.RawRecord

	for i, row := range rows[header+1:] {
		// 1-based file row number.
		if rec, ok := profile.record(cols, row, header+i+2); ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

type colIndex map[string]int

// detectProfile returns the first profile whose columns appear in some row,
// along with that row's column positions and index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex, len(row))

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].matches(cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
