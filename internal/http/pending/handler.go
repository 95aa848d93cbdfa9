package pending

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/response"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

type Handler struct {
	wf *reconcile.Workflow
}

func NewHandler(wf *reconcile.Workflow) *Handler {
	return &Handler{wf: wf}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
}

type pendingResponse struct {
	ID                   uuid.UUID            `json:"id"`
	OccurredAt           string               `json:"occurred_at"`
	Description          string               `json:"description"`
	SuggestedDescription string               `json:"suggested_description,omitempty"`
	Amount               int64                `json:"amount"`
	Kind                 candidate.Kind       `json:"kind"`
	Source               candidate.SourceKind `json:"source"`
	SourceRef            string               `json:"source_ref,omitempty"`
	Fingerprint          string               `json:"fingerprint"`
	StagedAt             time.Time            `json:"staged_at"`
}

func toPendingResponse(d staging.Draft) pendingResponse {
	return pendingResponse{
		ID:                   d.ID,
		OccurredAt:           d.OccurredAt.Format(time.DateOnly),
		Description:          d.Description,
		SuggestedDescription: d.Suggested,
		Amount:               d.Amount,
		Kind:                 d.Kind,
		Source:               d.Source,
		SourceRef:            d.SourceRef,
		Fingerprint:          d.Fingerprint.String(),
		StagedAt:             d.StagedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.wf.ListAwaiting(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	resp := make([]pendingResponse, len(drafts))
	for i, d := range drafts {
		resp[i] = toPendingResponse(d)
	}

	response.JSON(w, r, http.StatusOK, resp)
}

type approveRequest struct {
	Description string `json:"description"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.wf.Approve(r.Context(), middleware.OwnerFromContext(r.Context()), id, req.Description)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, response.NewTransaction(tx))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.wf.Reject(r.Context(), middleware.OwnerFromContext(r.Context()), id); err != nil {
		response.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
