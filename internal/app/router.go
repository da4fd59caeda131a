package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hotwind-erp/hotwind/internal/catalog"
	"github.com/hotwind-erp/hotwind/internal/customers"
	"github.com/hotwind-erp/hotwind/internal/fx"
	"github.com/hotwind-erp/hotwind/internal/invoicing"
	"github.com/hotwind-erp/hotwind/internal/reports"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CustomersHandler *customers.Handler
	CatalogHandler   *catalog.Handler
	RatesHandler     *fx.Handler
	InvoicesHandler  *invoicing.Handler
	ReportsHandler   *reports.Handler
}

// NewRouter constructs the chi.Router with HotWind defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(api)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(api)
		}
		if params.RatesHandler != nil {
			params.RatesHandler.MountRoutes(api)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(api)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(api)
		}
	})

	return r
}
