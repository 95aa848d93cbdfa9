// Package ingest runs batches of raw records through normalization and the
// dedup gate and reports one summary per batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/dedup"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

const (
	DefaultMaxErrors   = 100
	DefaultConcurrency = 4

	reasonNotAttempted = "not attempted"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=ingest
type Admitter interface {
	Admit(ctx context.Context, c candidate.Transaction) (dedup.Result, error)
}

type BatchRequest struct {
	ID     string
	Source candidate.SourceKind
	// OwnerID, when set, overrides the owner on every record.
	OwnerID string
	Records []candidate.RawRecord
}

// ItemError describes one failed record. Retryable is false only for records
// that can never succeed as submitted, such as normalization failures.
type ItemError struct {
	Index     int
	SourceRef string
	Reason    string
	Retryable bool
}

// Batch is the outcome summary. Total always equals Staged+Duplicate+Failed.
// RetryableFailures counts every retryable failure, including those whose
// ItemError was dropped. Canceled is set only when the end of the context
// kept at least one record from completing.
type Batch struct {
	ID                string
	Source            candidate.SourceKind
	Total             int
	Staged            int
	Duplicate         int
	Failed            int
	RetryableFailures int
	Errors            []ItemError
	ErrorsDropped     int
	Canceled          bool
}

type Service struct {
	gate        Admitter
	normalizer  *candidate.Normalizer
	maxErrors   int
	concurrency int
	timeout     time.Duration
}

type Option func(*Service)

func WithMaxErrors(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxErrors = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTimeout bounds each batch. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.normalizer = candidate.NewNormalizer(now)
	}
}

func NewService(gate Admitter, opts ...Option) *Service {
	s := &Service{
		gate:        gate,
		normalizer:  candidate.NewNormalizer(time.Now),
		maxErrors:   DefaultMaxErrors,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type status int

const (
	statusFailed status = iota
	statusStaged
	statusDuplicate
)

type itemResult struct {
	status      status
	reason      string
	retryable   bool
	interrupted bool
}

func notAttempted() itemResult {
	return itemResult{reason: reasonNotAttempted, retryable: true, interrupted: true}
}

// IngestBatch never aborts on a single bad record. When the context ends,
// records not yet started are reported as failed and work already
// committed stays committed.
func (s *Service) IngestBatch(ctx context.Context, req BatchRequest) (*Batch, error) {
	if _, err := candidate.ParseSourceKind(string(req.Source)); err != nil {
		return nil, fmt.Errorf("invalid batch source: %w", err)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx).With().
		Str("batch_id", req.ID).
		Str("source", string(req.Source)).
		Logger()
	ctx = logger.WithContext(ctx, log)

	results := make([]itemResult, len(req.Records))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, rec := range req.Records {
		if ctx.Err() != nil {
			results[i] = notAttempted()
			continue
		}

		if req.OwnerID != "" {
			rec.OwnerID = req.OwnerID
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = notAttempted()
				return nil
			}

			results[i] = s.process(ctx, rec, req.Source)

			return nil
		})
	}

	_ = g.Wait()

	batch := &Batch{
		ID:     req.ID,
		Source: req.Source,
		Total:  len(req.Records),
	}

	for i, r := range results {
		switch r.status {
		case statusStaged:
			batch.Staged++
		case statusDuplicate:
			batch.Duplicate++
		default:
			batch.Failed++

			if r.retryable {
				batch.RetryableFailures++
			}

			if r.interrupted {
				batch.Canceled = true
			}

			if len(batch.Errors) >= s.maxErrors {
				batch.ErrorsDropped++
				continue
			}

			batch.Errors = append(batch.Errors, ItemError{
				Index:     i,
				SourceRef: req.Records[i].SourceRef,
				Reason:    r.reason,
				Retryable: r.retryable,
			})
		}
	}

	log.Info().
		Int("total", batch.Total).
		Int("staged", batch.Staged).
		Int("duplicate", batch.Duplicate).
		Int("failed", batch.Failed).
		Int("retryable", batch.RetryableFailures).
		Bool("canceled", batch.Canceled).
		Msg("batch ingested")

	return batch, nil
}

func (s *Service) process(ctx context.Context, rec candidate.RawRecord, source candidate.SourceKind) itemResult {
	c, err := s.normalizer.Normalize(rec, source)
	if err != nil {
		return itemResult{reason: err.Error()}
	}

	res, err := s.gate.Admit(ctx, c)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("owner_id", c.OwnerID).
			Str("source_ref", c.SourceRef).
			Msg("admission failed")

		return itemResult{
			reason:      err.Error(),
			retryable:   true,
			interrupted: errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded),
		}
	}

	if res.Outcome.Duplicate() {
		return itemResult{status: statusDuplicate}
	}

	return itemResult{status: statusStaged}
}
