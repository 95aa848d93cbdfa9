package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/dedup"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/matching"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
	"github.com/MrJamesThe3rd/ledgerflow/internal/storage/memory"
)

type harness struct {
	store    *memory.Store
	gate     *dedup.Gate
	workflow *reconcile.Workflow
}

func newHarness(opts ...dedup.Option) harness {
	store := memory.New()
	match := matching.NewService(store)

	return harness{
		store:    store,
		gate:     dedup.NewGate(store, store, opts...),
		workflow: reconcile.NewWorkflow(store, store, staging.NewService(store, match), match, reconcile.WithClock(clock)),
	}
}

func (h harness) stage(t *testing.T, desc string) *staging.PendingTransaction {
	t.Helper()

	c, err := candidate.NewNormalizer(clock).Normalize(candidate.RawRecord{
		OwnerID:     "U1",
		OccurredAt:  "2024-03-01",
		Description: desc,
		Amount:      "150",
		Kind:        "expense",
	}, candidate.SourceInboxScan)
	require.NoError(t, err)

	res, err := h.gate.Admit(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, dedup.OutcomeStaged, res.Outcome)

	return res.Pending
}

func TestWorkflow_ConcurrentApprove(t *testing.T) {
	h := newHarness()
	p := h.stage(t, "Coffee")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		invalid int
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := h.workflow.Approve(context.Background(), "U1", p.ID, "Coffee at Cafe X")

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				wins++
			} else if errors.Is(err, staging.ErrInvalidTransition) {
				invalid++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, invalid)

	txs, err := h.store.List(context.Background(), ledger.ListFilter{OwnerID: "U1"})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestWorkflow_ApproveRacesManualEntry(t *testing.T) {
	h := newHarness()
	p := h.stage(t, "Coffee")

	var wg sync.WaitGroup

	var approveErr, manualErr error

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, approveErr = h.workflow.Approve(context.Background(), "U1", p.ID, "Coffee")
	}()

	go func() {
		defer wg.Done()

		_, _, manualErr = h.workflow.EnterManual(context.Background(), candidate.RawRecord{
			OwnerID:     "U1",
			OccurredAt:  "2024-03-01",
			Description: "coffee",
			Amount:      "150.00",
			Kind:        "expense",
		})
	}()

	wg.Wait()

	require.NoError(t, approveErr)
	require.NoError(t, manualErr)

	txs, err := h.store.List(context.Background(), ledger.ListFilter{OwnerID: "U1"})
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	got, err := h.store.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, staging.StatusApproved, got.Status)
}

func TestWorkflow_RejectionIsNotPermanent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.stage(t, "Coffee")
	require.NoError(t, h.workflow.Reject(ctx, "U1", first.ID))

	txs, err := h.store.List(ctx, ledger.ListFilter{OwnerID: "U1"})
	require.NoError(t, err)
	assert.Empty(t, txs)

	second := h.stage(t, "COFFEE")
	assert.NotEqual(t, first.ID, second.ID)

	_, err = h.workflow.Approve(ctx, "U1", first.ID, "Coffee")
	require.ErrorIs(t, err, staging.ErrInvalidTransition)
}

func TestWorkflow_RejectionSuppressed(t *testing.T) {
	h := newHarness(dedup.WithRejectionPolicy(dedup.SuppressRejected))
	ctx := context.Background()

	first := h.stage(t, "Coffee")
	require.NoError(t, h.workflow.Reject(ctx, "U1", first.ID))

	c, err := candidate.NewNormalizer(clock).Normalize(candidate.RawRecord{
		OwnerID:     "U1",
		OccurredAt:  "2024-03-01",
		Description: "Coffee",
		Amount:      "150",
		Kind:        "expense",
	}, candidate.SourceDocumentScan)
	require.NoError(t, err)

	res, err := h.gate.Admit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, dedup.OutcomeRejected, res.Outcome)
}

func TestWorkflow_ApprovalTeachesSuggestions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	p := h.stage(t, "POS 4411 STARBUCKS MG ROAD")

	_, err := h.workflow.Approve(ctx, "U1", p.ID, "Coffee")
	require.NoError(t, err)

	c, err := candidate.NewNormalizer(clock).Normalize(candidate.RawRecord{
		OwnerID:     "U1",
		OccurredAt:  "2024-03-02",
		Description: "POS 4411 STARBUCKS MG ROAD",
		Amount:      "220",
		Kind:        "expense",
	}, candidate.SourceInboxScan)
	require.NoError(t, err)

	_, err = h.gate.Admit(ctx, c)
	require.NoError(t, err)

	drafts, err := h.workflow.ListAwaiting(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Coffee", drafts[0].Suggested)
}

func TestWorkflow_OwnerScoping(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	p := h.stage(t, "Coffee")

	_, err := h.workflow.Approve(ctx, "U2", p.ID, "Coffee")
	require.ErrorIs(t, err, staging.ErrNotFound)

	got, err := h.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, staging.StatusAwaiting, got.Status)

	require.NoError(t, h.workflow.Reject(ctx, "U1", p.ID))

	_, err = h.workflow.Approve(ctx, "U2", p.ID, "Coffee")
	require.ErrorIs(t, err, staging.ErrNotFound)
	require.NotErrorIs(t, err, staging.ErrInvalidTransition)

	require.ErrorIs(t, h.workflow.Reject(ctx, "U2", p.ID), staging.ErrNotFound)
}
