// Package dedup decides whether a candidate is new, already known, or
// already waiting for review.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

// Outcome is the gate's verdict for one candidate. Only Staged creates state.
type Outcome string

const (
	OutcomeStaged           Outcome = "staged"
	OutcomeAlreadyCanonical Outcome = "already_canonical"
	OutcomeAlreadyPending   Outcome = "already_pending"
	OutcomeRejected         Outcome = "rejected"
)

// Duplicate reports whether the outcome means the event was already known.
func (o Outcome) Duplicate() bool {
	return o != OutcomeStaged
}

// RejectionPolicy controls what happens when the latest staged record for a
// fingerprint was rejected by the user.
type RejectionPolicy string

const (
	// ReofferRejected stages the candidate again.
	ReofferRejected RejectionPolicy = "reoffer"
	// SuppressRejected reports the candidate as rejected without staging it.
	SuppressRejected RejectionPolicy = "suppress"
)

func ParseRejectionPolicy(s string) (RejectionPolicy, error) {
	switch p := RejectionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ReofferRejected:
		return ReofferRejected, nil
	case SuppressRejected:
		return SuppressRejected, nil
	default:
		return "", fmt.Errorf("unknown rejection policy %q", s)
	}
}

type Result struct {
	Outcome     Outcome
	Fingerprint fingerprint.Fingerprint
	// Pending is set only for OutcomeStaged.
	Pending *staging.PendingTransaction
}

type Gate struct {
	ledger  ledger.Repository
	staging staging.Repository
	policy  RejectionPolicy
	now     func() time.Time
}

type Option func(*Gate)

func WithRejectionPolicy(p RejectionPolicy) Option {
	return func(g *Gate) {
		g.policy = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(ledgerRepo ledger.Repository, stagingRepo staging.Repository, opts ...Option) *Gate {
	g := &Gate{
		ledger:  ledgerRepo,
		staging: stagingRepo,
		policy:  ReofferRejected,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Admit checks the ledger, then staging, then stages the candidate. The
// lookups are an optimization; the staging store's uniqueness on awaiting
// rows is what makes admission safe under concurrent callers.
func (g *Gate) Admit(ctx context.Context, c candidate.Transaction) (Result, error) {
	fp := fingerprint.Compute(c)
	res := Result{Fingerprint: fp}

	_, err := g.ledger.FindByFingerprint(ctx, c.OwnerID, fp)
	switch {
	case err == nil:
		res.Outcome = OutcomeAlreadyCanonical
		return res, nil
	case !errors.Is(err, ledger.ErrNotFound):
		return res, fmt.Errorf("checking ledger: %w", err)
	}

	latest, err := g.staging.Get(ctx, c.OwnerID, fp)
	switch {
	case err == nil:
		switch latest.Status {
		case staging.StatusAwaiting:
			res.Outcome = OutcomeAlreadyPending
			return res, nil
		case staging.StatusApproved:
			res.Outcome = OutcomeAlreadyCanonical
			return res, nil
		case staging.StatusRejected:
			if g.policy == SuppressRejected {
				res.Outcome = OutcomeRejected
				return res, nil
			}
		}
	case !errors.Is(err, staging.ErrNotFound):
		return res, fmt.Errorf("checking staging: %w", err)
	}

	p := staging.NewPending(c, fp, g.now())

	if err := g.staging.Put(ctx, p); err != nil {
		if errors.Is(err, staging.ErrAlreadyAwaiting) {
			res.Outcome = OutcomeAlreadyPending
			return res, nil
		}

		return res, fmt.Errorf("staging candidate: %w", err)
	}

	res.Outcome = OutcomeStaged
	res.Pending = p

	return res, nil
}
