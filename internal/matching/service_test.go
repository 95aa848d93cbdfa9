package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerflow/internal/matching"
)

func TestService_Suggest(t *testing.T) {
	ctrl := gomock.NewController(t)

	repo := matching.NewMockRepository(ctrl)
	repo.EXPECT().FindMatch(gomock.Any(), "U1", "COMPRA 1234 CONTINENTE").Return("Groceries", nil)

	svc := matching.NewService(repo)

	got, err := svc.Suggest(context.Background(), "U1", "COMPRA 1234 CONTINENTE")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got)

	got, err = svc.Suggest(context.Background(), "U1", "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_Suggest_FuzzyFallback(t *testing.T) {
	mappings := []matching.Mapping{
		{RawPattern: "UBER TRIP HELP", PreferredDescription: "Taxi"},
		{RawPattern: "NETFLIX.COM", PreferredDescription: "Streaming"},
	}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "CloseEnough", raw: "UBER TRIP HELP.", want: "Taxi"},
		{name: "TooFar", raw: "AMAZON MARKETPLACE", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := matching.NewMockRepository(ctrl)
			repo.EXPECT().FindMatch(gomock.Any(), "U1", tt.raw).Return("", nil)
			repo.EXPECT().ListMappings(gomock.Any(), "U1").Return(mappings, nil)

			got, err := matching.NewService(repo).Suggest(context.Background(), "U1", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Learn(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		preferred string
		wantCall  bool
	}{
		{name: "Stores", raw: " COMPRA CONTINENTE ", preferred: "Groceries", wantCall: true},
		{name: "SkipsEmptyPreferred", raw: "COMPRA", preferred: " "},
		{name: "SkipsEmptyRaw", raw: "", preferred: "Groceries"},
		{name: "SkipsIdentical", raw: "Coffee", preferred: "Coffee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := matching.NewMockRepository(ctrl)
			if tt.wantCall {
				repo.EXPECT().CreateMapping(gomock.Any(), "U1", "COMPRA CONTINENTE", "Groceries").Return(nil)
			}

			require.NoError(t, matching.NewService(repo).Learn(context.Background(), "U1", tt.raw, tt.preferred))
		})
	}
}
