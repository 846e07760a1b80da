package categories

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

// SeedFunc provisions the system categories for one tenant.
type SeedFunc func(ctx context.Context, tenantID uuid.UUID) ([]Category, error)

// Handler exposes tenant category provisioning.
type Handler struct {
	logger *slog.Logger
	seed   SeedFunc
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, seed SeedFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, seed: seed}
}

// MountRoutes registers routes under /categories.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/seed", h.seedTenant)
}

func (h *Handler) seedTenant(w http.ResponseWriter, r *http.Request) {
	principal, err := tenancy.FromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.seed(r.Context(), principal.TenantID)
	if err != nil {
		h.logger.Error("seed categories", slog.String("tenant_id", principal.TenantID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}
