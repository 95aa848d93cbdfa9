package staging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

func pending(desc string) *staging.PendingTransaction {
	c := candidate.Transaction{
		OwnerID:     "U1",
		OccurredAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      15000,
		Kind:        candidate.KindExpense,
		Source:      candidate.SourceInboxScan,
	}

	return staging.NewPending(c, fingerprint.Compute(c), time.Now())
}

func TestNewPending(t *testing.T) {
	p := pending("Coffee")

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, staging.StatusAwaiting, p.Status)
	assert.Nil(t, p.DecidedAt)
	assert.Equal(t, "Coffee", p.Description)
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, staging.StatusAwaiting.Terminal())
	assert.True(t, staging.StatusApproved.Terminal())
	assert.True(t, staging.StatusRejected.Terminal())
}

func TestService_ListAwaiting(t *testing.T) {
	coffee := pending("COFFEE SHOP 123")
	rent := pending("TRF RENT")

	tests := []struct {
		name          string
		nilSuggester  bool
		setupRepo     func(m *staging.MockRepository)
		setupSuggest  func(m *staging.MockSuggester)
		wantSuggested []string
		wantErr       error
	}{
		{
			name: "WithSuggestions",
			setupRepo: func(m *staging.MockRepository) {
				m.EXPECT().ListAwaiting(gomock.Any(), "U1").Return([]*staging.PendingTransaction{coffee, rent}, nil)
			},
			setupSuggest: func(m *staging.MockSuggester) {
				m.EXPECT().Suggest(gomock.Any(), "U1", "COFFEE SHOP 123").Return("Coffee", nil)
				m.EXPECT().Suggest(gomock.Any(), "U1", "TRF RENT").Return("", nil)
			},
			wantSuggested: []string{"Coffee", ""},
		},
		{
			name: "SuggestionFailureIsIgnored",
			setupRepo: func(m *staging.MockRepository) {
				m.EXPECT().ListAwaiting(gomock.Any(), "U1").Return([]*staging.PendingTransaction{coffee}, nil)
			},
			setupSuggest: func(m *staging.MockSuggester) {
				m.EXPECT().Suggest(gomock.Any(), "U1", gomock.Any()).Return("", errors.New("db down"))
			},
			wantSuggested: []string{""},
		},
		{
			name:         "NoSuggester",
			nilSuggester: true,
			setupRepo: func(m *staging.MockRepository) {
				m.EXPECT().ListAwaiting(gomock.Any(), "U1").Return([]*staging.PendingTransaction{coffee}, nil)
			},
			wantSuggested: []string{""},
		},
		{
			name: "RepoError",
			setupRepo: func(m *staging.MockRepository) {
				m.EXPECT().ListAwaiting(gomock.Any(), "U1").Return(nil, staging.ErrStorageUnavailable)
			},
			wantErr: staging.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := staging.NewMockRepository(ctrl)
			tt.setupRepo(repo)

			var svc *staging.Service

			if tt.nilSuggester {
				svc = staging.NewService(repo, nil)
			} else {
				sug := staging.NewMockSuggester(ctrl)
				if tt.setupSuggest != nil {
					tt.setupSuggest(sug)
				}

				svc = staging.NewService(repo, sug)
			}

			got, err := svc.ListAwaiting(context.Background(), "U1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, got, len(tt.wantSuggested))

			for i, want := range tt.wantSuggested {
				assert.Equal(t, want, got[i].Suggested)
			}
		})
	}
}
