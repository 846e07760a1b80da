package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/observability"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/purchasing"
	"github.com/odyssey-erp/purchase-ledger/internal/reclassify"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
	"github.com/odyssey-erp/purchase-ledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Metrics           *observability.Metrics
	PurchasingHandler *purchasing.Handler
	RecomputeHandler  *stockledger.Handler
	ReclassifyHandler *reclassify.Handler
	CategoryHandler   *categories.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with ledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenancy.Middleware)
		if params.PurchasingHandler != nil {
			r.Route("/purchase-invoices", params.PurchasingHandler.MountRoutes)
		}
		r.Route("/products", func(r chi.Router) {
			if params.RecomputeHandler != nil {
				params.RecomputeHandler.MountRoutes(r)
			}
			if params.ReclassifyHandler != nil {
				params.ReclassifyHandler.MountRoutes(r)
			}
		})
		if params.CategoryHandler != nil {
			r.Route("/categories", params.CategoryHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountTenantRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, shared.ErrNotFound)
	})

	return r
}
