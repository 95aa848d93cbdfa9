package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/ledgerflow/internal/http/batch"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/matching"
	ledgermw "github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/pending"
	"github.com/MrJamesThe3rd/ledgerflow/internal/http/transaction"
)

type Options struct {
	Logger         zerolog.Logger
	AuthSecret     []byte
	AuthDisabled   bool
	AllowedOrigins []string
	// Timeout bounds every request; zero disables it.
	Timeout time.Duration
}

type Handlers struct {
	Transactions *transaction.Handler
	Pending      *pending.Handler
	Batches      *batch.Handler
	Import       *importcsv.Handler
	Matching     *matching.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(ledgermw.Logger(opts.Logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ledgermw.HeaderOwnerID},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(ledgermw.Authenticate(opts.AuthSecret, opts.AuthDisabled))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/pending", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Pending.Routes(r)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Batches.Routes(r)
		})

		r.Route("/import", h.Import.Routes)

		r.Route("/matching", func(r chi.Router) {
			h.Matching.Routes(r)
		})
	})

	return router
}
