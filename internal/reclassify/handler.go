package reclassify

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

// Handler exposes the reclassification endpoint.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers routes under /products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/reclassify", h.reclassify)
}

type reclassifyRequest struct {
	Department string `json:"department" validate:"required,max=32"`
}

func (h *Handler) reclassify(w http.ResponseWriter, r *http.Request) {
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
	var req reclassifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.FromValidator(err))
		return
	}
	res, err := h.service.ReclassifyProduct(r.Context(), principal.TenantID, id, req.Department)
	if err != nil {
		h.logger.Warn("reclassify product", slog.String("product_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
