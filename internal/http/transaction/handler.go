package transaction

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/fingerprint"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/response"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
)

type Handler struct {
	ledgerSvc *ledger.Service
	wf        *reconcile.Workflow
}

func NewHandler(ledgerSvc *ledger.Service, wf *reconcile.Workflow) *Handler {
	return &Handler{ledgerSvc: ledgerSvc, wf: wf}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{fingerprint}", h.get)
}

type createTransactionRequest struct {
	Amount      candidate.RawAmount `json:"amount"`
	Kind        string              `json:"kind"`
	Description string              `json:"description"`
	// Date is optional and defaults to today.
	Date string `json:"date,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, created, err := h.wf.EnterManual(r.Context(), candidate.RawRecord{
		OwnerID:     middleware.OwnerFromContext(r.Context()),
		OccurredAt:  req.Date,
		Description: req.Description,
		Amount:      req.Amount,
		Kind:        req.Kind,
	})
	if err != nil {
		response.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	response.JSON(w, r, status, response.NewTransaction(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{OwnerID: middleware.OwnerFromContext(r.Context())}

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			http.Error(w, "invalid start_date", http.StatusBadRequest)
			return
		}

		filter.StartDate = new(t)
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			http.Error(w, "invalid end_date", http.StatusBadRequest)
			return
		}

		filter.EndDate = new(t)
	}

	txs, err := h.ledgerSvc.List(r.Context(), filter)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, response.NewTransactionList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	fp := fingerprint.Fingerprint(chi.URLParam(r, "fingerprint"))

	tx, err := h.ledgerSvc.Get(r.Context(), middleware.OwnerFromContext(r.Context()), fp)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, response.NewTransaction(tx))
}
