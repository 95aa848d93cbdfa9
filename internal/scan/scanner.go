// Package scan runs the periodic per-owner inbox re-scan.
package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

//go:generate mockgen -source=scanner.go -destination=scanner_mock.go -package=scan
type Source interface {
	Fetch(ctx context.Context, ownerID string, since time.Time) ([]candidate.RawRecord, error)
}

type Ingester interface {
	IngestBatch(ctx context.Context, req ingest.BatchRequest) (*ingest.Batch, error)
}

type Scanner struct {
	source      Source
	ingester    Ingester
	owners      []string
	interval    time.Duration
	concurrency int
	now         func() time.Time

	mu    sync.Mutex
	since map[string]time.Time
}

type Option func(*Scanner)

func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

func NewScanner(source Source, ingester Ingester, owners []string, interval time.Duration, opts ...Option) *Scanner {
	s := &Scanner{
		source:      source,
		ingester:    ingester,
		owners:      owners,
		interval:    interval,
		concurrency: 2,
		now:         time.Now,
		since:       make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run scans every owner immediately and then on each tick until ctx ends.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.ScanAll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanAll scans owners concurrently. Per-owner failures and failed records
// are logged and do not stop the others.
func (s *Scanner) ScanAll(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, owner := range s.owners {
		g.Go(func() error {
			log := logger.FromContext(ctx).With().Str("owner_id", owner).Logger()

			batch, err := s.ScanOwner(ctx, owner)
			if err != nil {
				log.Error().Err(err).Msg("inbox scan failed")
				return nil
			}

			for _, e := range batch.Errors {
				log.Warn().
					Str("batch_id", batch.ID).
					Int("index", e.Index).
					Str("source_ref", e.SourceRef).
					Str("reason", e.Reason).
					Bool("retryable", e.Retryable).
					Msg("inbox record failed")
			}

			return nil
		})
	}

	_ = g.Wait()
}

// ScanOwner fetches records newer than the owner's last complete scan and
// ingests them as one batch. The watermark only advances when the batch ran
// to completion without retryable failures, so records skipped by a timeout
// or refused by unavailable storage are fetched again and already-staged ones
// come back as duplicates. Records that fail normalization do not hold it back.
func (s *Scanner) ScanOwner(ctx context.Context, ownerID string) (*ingest.Batch, error) {
	started := s.now()
	since := s.watermark(ownerID)

	records, err := s.source.Fetch(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("fetching inbox records: %w", err)
	}

	log := logger.FromContext(ctx)

	if len(records) == 0 {
		log.Debug().Str("owner_id", ownerID).Msg("inbox scan found nothing new")
		s.advance(ownerID, started)

		return &ingest.Batch{Source: candidate.SourceInboxScan}, nil
	}

	batch, err := s.ingester.IngestBatch(ctx, ingest.BatchRequest{
		ID:      fmt.Sprintf("inbox-%s-%d", ownerID, started.Unix()),
		Source:  candidate.SourceInboxScan,
		OwnerID: ownerID,
		Records: records,
	})
	if err != nil {
		return nil, fmt.Errorf("ingesting inbox records: %w", err)
	}

	if !batch.Canceled && batch.RetryableFailures == 0 {
		s.advance(ownerID, started)
	}

	return batch, nil
}

func (s *Scanner) watermark(ownerID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.since[ownerID]
}

func (s *Scanner) advance(ownerID string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.since[ownerID] = t
}
