package purchasing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

// IdempotencyHeader carries the client supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyGuard claims request keys for a limited time.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Handler exposes the purchase invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     IdempotencyGuard
	validator *validator.Validate
}

// NewHandler builds Handler. guard may be nil.
func NewHandler(logger *slog.Logger, service *Service, guard IdempotencyGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers purchase invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

type lineRequest struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	ProductName string           `json:"product_name" validate:"required_without=ProductID,max=200"`
	SKU         string           `json:"sku" validate:"max=64"`
	Quantity    int64            `json:"quantity" validate:"gt=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost" validate:"required"`
}

type createInvoiceRequest struct {
	Lines         []lineRequest   `json:"lines" validate:"required,min=1,dive"`
	FreightCost   decimal.Decimal `json:"freight_cost"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	OtherCosts    decimal.Decimal `json:"other_costs"`
	EntryDate     string          `json:"entry_date" validate:"required,datetime=2006-01-02"`
	SupplierID    *uuid.UUID      `json:"supplier_id"`
	InvoiceNumber string          `json:"invoice_number" validate:"max=64"`
	InvoiceKey    string          `json:"invoice_key" validate:"max=64"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

func (req createInvoiceRequest) toInput(p tenancy.Principal) (CreateInvoiceInput, error) {
	entryDate, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return CreateInvoiceInput{}, shared.Invalid("entry_date", "must be YYYY-MM-DD")
	}
	in := CreateInvoiceInput{
		TenantID:      p.TenantID,
		ActorID:       p.ActorID,
		FreightCost:   req.FreightCost,
		TaxRate:       req.TaxRate,
		OtherCosts:    req.OtherCosts,
		EntryDate:     entryDate,
		SupplierID:    req.SupplierID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceKey:    req.InvoiceKey,
		Notes:         req.Notes,
		Lines:         make([]LineInput, len(req.Lines)),
	}
	for i, l := range req.Lines {
		line := LineInput{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.UnitCost != nil {
			line.RawUnitCost = *l.UnitCost
		}
		if l.ProductID == nil {
			line.NewProduct = &NewProductInput{Name: l.ProductName, SKU: l.SKU}
		}
		in.Lines[i] = line
	}
	return in, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, err := tenancy.FromContext(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.FromValidator(err))
		return
	}
	in, err := req.toInput(principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	key := r.Header.Get(IdempotencyHeader)
	if key != "" && h.guard != nil {
		key = "purchase-invoice:" + principal.TenantID.String() + ":" + key
		ok, err := h.guard.Acquire(r.Context(), key)
		switch {
		case err != nil:
			h.logger.Warn("idempotency guard unavailable", slog.Any("error", err))
			key = ""
		case !ok:
			httpx.RespondError(w, shared.ErrConflict)
			return
		}
	} else {
		key = ""
	}

	inv, err := h.service.CreateInvoice(r.Context(), in)
	if err != nil {
		if key != "" {
			if rerr := h.guard.Release(context.WithoutCancel(r.Context()), key); rerr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", rerr))
			}
		}
		h.respondServiceError(w, "create purchase invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
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
	detail, err := h.service.GetInvoice(r.Context(), principal.TenantID, id)
	if err != nil {
		h.respondServiceError(w, "get purchase invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.service.DeleteInvoice(r.Context(), principal.TenantID, id); err != nil {
		h.respondServiceError(w, "delete purchase invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrUnauthorized) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
