// Package response writes JSON bodies and maps domain errors to HTTP status
// codes for every handler.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/ledgerflow/internal/candidate"
	"github.com/MrJamesThe3rd/ledgerflow/internal/ledger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
	"github.com/MrJamesThe3rd/ledgerflow/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerflow/internal/staging"
)

// RetryAfterSeconds is sent with 503 responses.
const RetryAfterSeconds = "5"

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Status maps an error from the core to a status code.
func Status(err error) int {
	switch {
	case errors.Is(err, candidate.ErrNormalization),
		errors.Is(err, reconcile.ErrDescriptionRequired):
		return http.StatusBadRequest
	case errors.Is(err, staging.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, staging.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, staging.ErrStorageUnavailable),
		errors.Is(err, ledger.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with its mapped status. Internal errors are logged and
// hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)

	switch status {
	case http.StatusInternalServerError:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal error", status)

		return
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", RetryAfterSeconds)
		http.Error(w, "storage temporarily unavailable, please retry", status)

		return
	}

	http.Error(w, err.Error(), status)
}
