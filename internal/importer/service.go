package importer

import (
	"fmt"
	"io"
	"slices"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/importer/cgd"
)

type Service struct {
	importers map[Bank]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Bank]Importer{
			BankCGD: cgd.NewParser(),
		},
	}
}

// Banks lists the supported statement formats in a stable order.
func (s *Service) Banks() []Bank {
	banks := make([]Bank, 0, len(s.importers))
	for b := range s.importers {
		banks = append(banks, b)
	}

	slices.Sort(banks)

	return banks
}

func (s *Service) Import(bank Bank, r io.Reader) ([]candidate.RawRecord, error) {
	importer, ok := s.importers[bank]
	if !ok {
		return nil, fmt.Errorf("unknown bank: %s", bank)
	}

	return importer.Parse(r)
}
