package batch

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/response"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
)

// maxBodyBytes caps a single batch upload.
const maxBodyBytes = 10 << 20

type Handler struct {
	svc *ingest.Service
}

func NewHandler(svc *ingest.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.ingest)
}

type batchRequest struct {
	BatchID string                `json:"batch_id"`
	Source  string                `json:"source"`
	Records []candidate.RawRecord `json:"records"`
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	source := candidate.SourceDocumentScan
	if req.Source != "" {
		s, err := candidate.ParseSourceKind(req.Source)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		source = s
	}

	if source == candidate.SourceManual {
		http.Error(w, "manual entries go through /transactions", http.StatusBadRequest)
		return
	}

	b, err := h.svc.IngestBatch(r.Context(), ingest.BatchRequest{
		ID:      req.BatchID,
		Source:  source,
		OwnerID: middleware.OwnerFromContext(r.Context()),
		Records: req.Records,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response.JSON(w, r, http.StatusOK, response.NewBatch(b))
}
