package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerflow/internal/app"
	"github.com/MrJamesThe3rd/ledgerflow/internal/config"
	ledgerhttp "github.com/MrJamesThe3rd/ledgerflow/internal/http"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/batch"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/matching"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/pending"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/transaction"
)

type server struct {
	t       *testing.T
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()

	var cfg config.Config
	cfg.Ingest.MaxErrors = 100
	cfg.Ingest.Concurrency = 4
	cfg.Ingest.RejectionPolicy = "reoffer"

	a, err := app.New(&cfg, app.MemoryRepositories())
	require.NoError(t, err)

	h := ledgerhttp.New(ledgerhttp.Options{
		Logger:         zerolog.Nop(),
		AuthDisabled:   true,
		AllowedOrigins: []string{"http://localhost:5173"},
	}, ledgerhttp.Handlers{
		Transactions: transaction.NewHandler(a.Ledger, a.Workflow),
		Pending:      pending.NewHandler(a.Workflow),
		Batches:      batch.NewHandler(a.Ingest),
		Import:       importcsv.NewHandler(a.Importer, a.Ingest),
		Matching:     matching.NewHandler(a.Matching),
	})

	return &server{t: t, handler: h}
}

func (s *server) do(owner, method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)

		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if owner != "" {
		req.Header.Set(middleware.HeaderOwnerID, owner)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

type batchSummary struct {
	BatchID   string `json:"batch_id"`
	Source    string `json:"source"`
	Total     int    `json:"total"`
	Staged    int    `json:"staged"`
	Duplicate int    `json:"duplicate"`
	Failed    int    `json:"failed"`
	Errors    []struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

type pendingItem struct {
	ID                   string `json:"id"`
	Description          string `json:"description"`
	SuggestedDescription string `json:"suggested_description"`
	Amount               int64  `json:"amount"`
}

type canonical struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Kind        string `json:"kind"`
	Origin      string `json:"origin"`
	Fingerprint string `json:"fingerprint"`
	OccurredAt  string `json:"occurred_at"`
}

func coffeeBatch(id string) map[string]any {
	return map[string]any{
		"batch_id": id,
		"source":   "inbox_scan",
		"records": []map[string]any{{
			"occurred_at": "2024-03-05",
			"description": "coffee",
			"amount":      "4.50",
			"kind":        "expense",
		}},
	}
}

func TestPipeline_CoffeeFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do("U1", http.MethodPost, "/api/v1/batches", coffeeBatch("b1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[batchSummary](t, rec)
	assert.Equal(t, "b1", summary.BatchID)
	assert.Equal(t, "inbox_scan", summary.Source)
	assert.Equal(t, 1, summary.Staged)

	rec = s.do("U1", http.MethodGet, "/api/v1/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode[[]pendingItem](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "coffee", items[0].Description)
	assert.EqualValues(t, 450, items[0].Amount)

	rec = s.do("U1", http.MethodPost, "/api/v1/pending/"+items[0].ID+"/approve", map[string]string{"description": "Coffee at Cafe X"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tx := decode[canonical](t, rec)
	assert.Equal(t, "Coffee at Cafe X", tx.Description)
	assert.EqualValues(t, 450, tx.Amount)
	assert.Equal(t, "expense", tx.Kind)
	assert.Equal(t, "human_approved", tx.Origin)
	assert.Equal(t, "2024-03-05", tx.OccurredAt)

	rec = s.do("U1", http.MethodPost, "/api/v1/batches", coffeeBatch("b2"))
	require.Equal(t, http.StatusOK, rec.Code)

	summary = decode[batchSummary](t, rec)
	assert.Equal(t, 0, summary.Staged)
	assert.Equal(t, 1, summary.Duplicate)

	rec = s.do("U1", http.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]canonical](t, rec), 1)

	rec = s.do("U1", http.MethodGet, "/api/v1/transactions/"+tx.Fingerprint, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Coffee at Cafe X", decode[canonical](t, rec).Description)

	rec = s.do("U1", http.MethodGet, "/api/v1/matching/suggest?raw_description=coffee", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coffee at Cafe X")
}

func TestPending_StatusMapping(t *testing.T) {
	s := newServer(t)

	rec := s.do("U1", http.MethodPost, "/api/v1/batches", coffeeBatch("b1"))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode[[]pendingItem](t, s.do("U1", http.MethodGet, "/api/v1/pending", nil))
	require.Len(t, items, 1)

	approve := "/api/v1/pending/" + items[0].ID + "/approve"

	tests := []struct {
		name   string
		owner  string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "empty description", owner: "U1", method: http.MethodPost, path: approve, body: map[string]string{"description": "  "}, want: http.StatusBadRequest},
		{name: "invalid id", owner: "U1", method: http.MethodPost, path: "/api/v1/pending/nope/approve", body: map[string]string{"description": "x"}, want: http.StatusBadRequest},
		{name: "unknown id", owner: "U1", method: http.MethodPost, path: "/api/v1/pending/7f9c2a55-3c0e-4a1e-9d7b-1f1f1f1f1f1f/approve", body: map[string]string{"description": "x"}, want: http.StatusNotFound},
		{name: "other owner", owner: "U2", method: http.MethodPost, path: approve, body: map[string]string{"description": "x"}, want: http.StatusNotFound},
		{name: "no owner", method: http.MethodGet, path: "/api/v1/pending", want: http.StatusUnauthorized},
		{name: "approve", owner: "U1", method: http.MethodPost, path: approve, body: map[string]string{"description": "Coffee"}, want: http.StatusOK},
		{name: "approve again", owner: "U1", method: http.MethodPost, path: approve, body: map[string]string{"description": "Coffee"}, want: http.StatusConflict},
		{name: "reject after approve", owner: "U1", method: http.MethodPost, path: "/api/v1/pending/" + items[0].ID + "/reject", want: http.StatusConflict},
		{name: "other owner after approve", owner: "U2", method: http.MethodPost, path: approve, body: map[string]string{"description": "x"}, want: http.StatusNotFound},
	}

	// Cases run in order; the last four depend on each other.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.owner, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestPending_Reject(t *testing.T) {
	s := newServer(t)

	require.Equal(t, http.StatusOK, s.do("U1", http.MethodPost, "/api/v1/batches", coffeeBatch("b1")).Code)

	items := decode[[]pendingItem](t, s.do("U1", http.MethodGet, "/api/v1/pending", nil))
	require.Len(t, items, 1)

	rec := s.do("U1", http.MethodPost, "/api/v1/pending/"+items[0].ID+"/reject", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, decode[[]pendingItem](t, s.do("U1", http.MethodGet, "/api/v1/pending", nil)))
	assert.Empty(t, decode[[]canonical](t, s.do("U1", http.MethodGet, "/api/v1/transactions", nil)))

	summary := decode[batchSummary](t, s.do("U1", http.MethodPost, "/api/v1/batches", coffeeBatch("b2")))
	assert.Equal(t, 1, summary.Staged)
}

func TestTransactions_ManualEntry(t *testing.T) {
	s := newServer(t)

	body := map[string]any{"amount": 12.3, "description": "Lunch", "kind": "expense", "date": "2024-03-05"}

	rec := s.do("U1", http.MethodPost, "/api/v1/transactions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tx := decode[canonical](t, rec)
	assert.EqualValues(t, 1230, tx.Amount)
	assert.Equal(t, "manual_entry", tx.Origin)

	rec = s.do("U1", http.MethodPost, "/api/v1/transactions", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("U1", http.MethodPost, "/api/v1/transactions", map[string]any{"amount": "-1", "description": "Lunch", "kind": "expense"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("U1", http.MethodPost, "/api/v1/transactions", map[string]any{"amount": "1", "description": "Lunch", "kind": "gift"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	sameEvent := coffeeBatch("b1")
	sameEvent["records"] = []map[string]any{{"occurred_at": "2024-03-05", "description": "lunch", "amount": "12.30", "kind": "expense"}}

	summary := decode[batchSummary](t, s.do("U1", http.MethodPost, "/api/v1/batches", sameEvent))
	assert.Equal(t, 1, summary.Duplicate)
}

func TestTransactions_ListFilter(t *testing.T) {
	s := newServer(t)

	for _, date := range []string{"2024-03-01", "2024-03-15", "2024-04-01"} {
		rec := s.do("U1", http.MethodPost, "/api/v1/transactions", map[string]any{"amount": "1", "description": "Rent " + date, "kind": "expense", "date": date})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do("U1", http.MethodGet, "/api/v1/transactions?start_date=2024-03-10&end_date=2024-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	txs := decode[[]canonical](t, rec)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-03-15", txs[0].OccurredAt)

	assert.Empty(t, decode[[]canonical](t, s.do("U2", http.MethodGet, "/api/v1/transactions", nil)))

	rec = s.do("U1", http.MethodGet, "/api/v1/transactions?start_date=March", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("U1", http.MethodGet, "/api/v1/transactions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatches_Validation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "unknown source", body: map[string]any{"source": "fax", "records": []any{}}, want: http.StatusBadRequest},
		{name: "manual source", body: map[string]any{"source": "manual", "records": []any{}}, want: http.StatusBadRequest},
		{name: "bad amount type", body: map[string]any{"records": []map[string]any{{"amount": true}}}, want: http.StatusBadRequest},
		{name: "empty batch", body: map[string]any{"records": []any{}}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do("U1", http.MethodPost, "/api/v1/batches", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBatches_PartialFailure(t *testing.T) {
	s := newServer(t)

	body := map[string]any{
		"batch_id": "b1",
		"records": []map[string]any{
			{"occurred_at": "2024-03-05", "description": "Coffee", "amount": "4.50", "kind": "expense"},
			{"occurred_at": "2024-03-05", "description": "Tea", "amount": "abc", "kind": "expense"},
			{"occurred_at": "2024-03-06", "description": "Salary", "amount": "1000", "inferred_kind": "income"},
		},
	}

	rec := s.do("U1", http.MethodPost, "/api/v1/batches", body)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[batchSummary](t, rec)
	assert.Equal(t, "document_scan", summary.Source)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Staged)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 1, summary.Errors[0].Index)
}

const cgdStatement = `Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

func (s *server) upload(owner, bank, content string) *httptest.ResponseRecorder {
	s.t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(s.t, mw.WriteField("bank", bank))

	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(s.t, err)

	_, err = io.WriteString(fw, content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderOwnerID, owner)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func TestImport_Statement(t *testing.T) {
	s := newServer(t)

	rec := s.upload("U1", "cgd", cgdStatement)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[batchSummary](t, rec)
	assert.Equal(t, "document_scan", summary.Source)
	assert.Equal(t, 2, summary.Staged)

	summary = decode[batchSummary](t, s.upload("U1", "cgd", cgdStatement))
	assert.Equal(t, 2, summary.Duplicate)

	rec = s.upload("U1", "unknown", cgdStatement)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("U1", http.MethodGet, "/api/v1/import/banks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cgd"}, decode[[]string](t, rec))
}

func TestHealthz(t *testing.T) {
	s := newServer(t)

	rec := s.do("", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
