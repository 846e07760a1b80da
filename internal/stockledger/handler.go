package stockledger

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

// Handler exposes the recompute endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes under /products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/recompute-cost", h.recompute)
}

func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	principal, err := tenancy.FromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.Invalid("id", "must be a uuid"))
		return
	}
	snap, err := h.service.RecomputeTenantProduct(r.Context(), principal.TenantID, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("recompute product cost", slog.String("product_id", id.String()), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
