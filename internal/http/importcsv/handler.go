package importcsv

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/response"
	"github.com/MrJamesThe3rd/ledgerflow/internal/importer"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ingest"
)

type Handler struct {
	importSvc *importer.Service
	ingestSvc *ingest.Service
}

func NewHandler(importSvc *importer.Service, ingestSvc *ingest.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		ingestSvc: ingestSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/banks", h.banks)
	r.Post("/", h.importCSV)
}

func (h *Handler) banks(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.importSvc.Banks())
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		http.Error(w, "bank field is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	records, err := h.importSvc.Import(bank, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.ingestSvc.IngestBatch(r.Context(), ingest.BatchRequest{
		ID:      r.FormValue("batch_id"),
		Source:  candidate.SourceDocumentScan,
		OwnerID: middleware.OwnerFromContext(r.Context()),
		Records: records,
	})
	if err != nil {
		response.Error(w, r, fmt.Errorf("ingest %s: %w", header.Filename, err))
		return
	}

	response.JSON(w, r, http.StatusOK, response.NewBatch(b))
}
