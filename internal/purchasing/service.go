// Package purchasing books supplier invoices into stock and accounts payable
// and reverses them.
package purchasing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/catalog"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/costing"
	"github.com/odyssey-erp/purchase-ledger/internal/ledger"
	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
	"github.com/odyssey-erp/purchase-ledger/internal/observability"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	stockledger.Store
	categories.Store

	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) error
	SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error)

	InsertInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error)
	DeleteInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error

	InsertStockEntry(ctx context.Context, e stockledger.Entry) error
	ListStockEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]stockledger.Entry, error)

	InsertLedgerEntry(ctx context.Context, e ledger.Entry) error
	ListLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ledger.Entry, error)
	DeleteLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error)
}

// Repository runs a unit of work in one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	PayableTermDays int
	Locale          string
	Logger          *slog.Logger
	Metrics         *observability.Metrics
	Now             func() time.Time
}

// Service coordinates invoice booking and reversal.
type Service struct {
	repo      Repository
	notifier  notifications.Sink
	formatter *notifications.Formatter
	termDays  int
	logger    *slog.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService builds Service. A nil notifier disables post-commit alerts.
func NewService(repo Repository, notifier notifications.Sink, cfg ServiceConfig) *Service {
	s := &Service{
		repo:      repo,
		notifier:  notifier,
		formatter: notifications.NewFormatter(cfg.Locale),
		termDays:  cfg.PayableTermDays,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
	}
	if s.termDays <= 0 {
		s.termDays = DefaultPayableTermDays
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// CreateInvoice costs the lines, books the lots, refreshes each affected
// product's average cost and records the payable, all in one transaction.
// Notifications are sent after commit and never fail the call.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (Invoice, error) {
	if err := validateCreate(in); err != nil {
		return Invoice{}, err
	}
	lines := make([]costing.Line, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = costing.Line{Quantity: l.Quantity, RawUnitCost: l.RawUnitCost}
	}
	alloc, err := costing.Allocate(lines, costing.Charges{Freight: in.FreightCost, TaxRate: in.TaxRate, Other: in.OtherCosts})
	if err != nil {
		return Invoice{}, shared.Invalid("lines", err.Error())
	}

	now := s.now()
	entryDate := dateOnly(in.EntryDate)
	dueDate := entryDate.AddDate(0, 0, s.termDays)
	inv := Invoice{
		ID:            uuid.New(),
		TenantID:      in.TenantID,
		Number:        strings.TrimSpace(in.InvoiceNumber),
		Key:           strings.TrimSpace(in.InvoiceKey),
		SupplierID:    in.SupplierID,
		EntryDate:     entryDate,
		Subtotal:      alloc.Subtotal,
		FreightCost:   in.FreightCost,
		TaxRate:       in.TaxRate,
		OtherCosts:    in.OtherCosts,
		TotalCost:     alloc.TotalCost,
		PaymentStatus: PaymentPending,
		Notes:         in.Notes,
		CreatedBy:     in.ActorID,
		CreatedAt:     now,
	}

	var unpriced []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		unpriced = unpriced[:0]
		if in.SupplierID != nil {
			ok, err := tx.SupplierExists(ctx, in.TenantID, *in.SupplierID)
			if err != nil {
				return fmt.Errorf("purchasing: supplier lookup: %w", err)
			}
			if !ok {
				return fmt.Errorf("purchasing: %w", shared.NotFound("supplier", *in.SupplierID))
			}
		}
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return fmt.Errorf("purchasing: insert invoice: %w", err)
		}

		created := make(map[string]catalog.Product)
		affected := make([]uuid.UUID, 0, len(in.Lines))
		for i, line := range in.Lines {
			product, err := s.lineProduct(ctx, tx, in.TenantID, line, created)
			if err != nil {
				return fmt.Errorf("purchasing: line %d: %w", i+1, err)
			}
			if line.ProductID == nil && product.NeedsPricing() && !containsString(unpriced, product.Name) {
				unpriced = append(unpriced, product.Name)
			}
			entry := stockledger.Entry{
				ID:                uuid.New(),
				ProductID:         product.ID,
				InvoiceID:         inv.ID,
				Quantity:          line.Quantity,
				RemainingQuantity: line.Quantity,
				UnitCost:          alloc.Lines[i].AllocatedUnitCost,
				RawUnitCost:       line.RawUnitCost,
				CreatedAt:         now,
			}
			if err := tx.InsertStockEntry(ctx, entry); err != nil {
				return fmt.Errorf("purchasing: line %d: insert stock entry: %w", i+1, err)
			}
			affected = append(affected, product.ID)
		}

		if _, err := stockledger.RecomputeMany(ctx, tx, affected); err != nil {
			return fmt.Errorf("purchasing: %w", err)
		}

		category, err := categories.ResolveOrCreate(ctx, tx, in.TenantID, categories.CostOfGoodsSold)
		if err != nil {
			return fmt.Errorf("purchasing: cost of goods category: %w", err)
		}

		invoiceID := inv.ID
		categoryID := category.ID
		payable := ledger.Entry{
			ID:             uuid.New(),
			TenantID:       in.TenantID,
			Description:    payableDescription(inv),
			Amount:         inv.TotalCost,
			Type:           ledger.Expense,
			Status:         ledger.Pending,
			DueDate:        dueDate,
			CompetenceDate: entryDate,
			InvoiceID:      &invoiceID,
			CategoryID:     &categoryID,
			SupplierID:     in.SupplierID,
			CreatedAt:      now,
		}
		if err := tx.InsertLedgerEntry(ctx, payable); err != nil {
			return fmt.Errorf("purchasing: insert payable: %w", err)
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	s.metrics.InvoiceCreated()
	s.logger.Info("purchase invoice created",
		slog.String("tenant_id", inv.TenantID.String()),
		slog.String("invoice_id", inv.ID.String()),
		slog.String("total_cost", inv.TotalCost.StringFixed(2)),
		slog.Int("lines", len(in.Lines)))
	s.notifyCreated(context.WithoutCancel(ctx), inv, unpriced, dueDate)
	return inv, nil
}

func (s *Service) lineProduct(ctx context.Context, tx TxRepository, tenantID uuid.UUID, line LineInput, created map[string]catalog.Product) (catalog.Product, error) {
	if line.ProductID != nil {
		p, err := tx.GetProduct(ctx, tenantID, *line.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			return catalog.Product{}, shared.NotFound("product", *line.ProductID)
		}
		return p, err
	}
	key := strings.ToLower(strings.TrimSpace(line.NewProduct.Name))
	if p, ok := created[key]; ok {
		return p, nil
	}
	p := catalog.NewProduct(tenantID, line.NewProduct.Name, line.NewProduct.SKU)
	if err := tx.CreateProduct(ctx, p); err != nil {
		return catalog.Product{}, fmt.Errorf("create product %q: %w", p.Name, err)
	}
	created[key] = p
	return p, nil
}

func (s *Service) notifyCreated(ctx context.Context, inv Invoice, unpriced []string, dueDate time.Time) {
	if s.notifier == nil {
		return
	}
	now := s.now()
	var batch []notifications.Notification
	if len(unpriced) > 0 {
		batch = append(batch, s.formatter.PricingNeeded(inv.TenantID, inv.ID, unpriced, now))
	}
	batch = append(batch, s.formatter.PaymentReview(inv.TenantID, inv.ID, inv.TotalCost, dueDate, now))
	for _, n := range batch {
		if err := s.notifier.Create(ctx, n); err != nil {
			derr := &shared.NotificationDeliveryError{Type: string(n.Type), Err: err}
			s.metrics.NotificationFailed(string(n.Type))
			s.logger.Warn("post-commit notification dropped",
				slog.String("invoice_id", inv.ID.String()),
				slog.Any("error", derr))
		}
	}
}

// DeleteInvoice removes the invoice with its lots and payables, then
// recomputes every product it had stocked.
func (s *Service) DeleteInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	var consumed int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		consumed = 0
		if _, err := tx.GetInvoice(ctx, tenantID, invoiceID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("invoice", invoiceID)
			}
			return fmt.Errorf("purchasing: load invoice: %w", err)
		}
		entries, err := tx.ListStockEntriesByInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("purchasing: load stock entries: %w", err)
		}
		affected := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			affected = append(affected, e.ProductID)
			if e.RemainingQuantity < e.Quantity {
				consumed++
			}
		}
		if _, err := tx.DeleteLedgerEntriesByInvoice(ctx, tenantID, invoiceID); err != nil {
			return fmt.Errorf("purchasing: delete payables: %w", err)
		}
		if err := tx.DeleteInvoice(ctx, tenantID, invoiceID); err != nil {
			return fmt.Errorf("purchasing: delete invoice: %w", err)
		}
		if _, err := stockledger.RecomputeMany(ctx, tx, affected); err != nil {
			return fmt.Errorf("purchasing: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if consumed > 0 {
		s.logger.Warn("deleted invoice had partially consumed lots",
			slog.String("invoice_id", invoiceID.String()),
			slog.Int("lots", consumed))
	}
	s.metrics.InvoiceDeleted()
	s.logger.Info("purchase invoice deleted",
		slog.String("tenant_id", tenantID.String()),
		slog.String("invoice_id", invoiceID.String()))
	return nil
}

// GetInvoice loads an invoice with its lots and payables.
func (s *Service) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (InvoiceDetail, error) {
	if tenantID == uuid.Nil {
		return InvoiceDetail{}, shared.ErrUnauthorized
	}
	var detail InvoiceDetail
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetInvoice(ctx, tenantID, invoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("invoice", invoiceID)
			}
			return err
		}
		entries, err := tx.ListStockEntriesByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		payables, err := tx.ListLedgerEntriesByInvoice(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		detail = InvoiceDetail{Invoice: inv, Entries: entries, Payables: payables}
		return nil
	})
	return detail, err
}

func validateCreate(in CreateInvoiceInput) error {
	if in.TenantID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if in.ActorID == uuid.Nil {
		return shared.Invalid("actor_id", "required")
	}
	if len(in.Lines) == 0 {
		return shared.Invalid("lines", "empty invoice")
	}
	if in.EntryDate.IsZero() {
		return shared.Invalid("entry_date", "required")
	}
	if in.FreightCost.IsNegative() {
		return shared.Invalid("freight_cost", "must be >= 0")
	}
	if in.TaxRate.IsNegative() {
		return shared.Invalid("tax_rate", "must be >= 0")
	}
	if in.OtherCosts.IsNegative() {
		return shared.Invalid("other_costs", "must be >= 0")
	}
	for i, line := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if line.Quantity <= 0 {
			return shared.Invalid(field+".quantity", "must be > 0")
		}
		if line.RawUnitCost.IsNegative() {
			return shared.Invalid(field+".raw_unit_cost", "must be >= 0")
		}
		hasNew := line.NewProduct != nil && strings.TrimSpace(line.NewProduct.Name) != ""
		switch {
		case line.ProductID == nil && !hasNew:
			return shared.Invalid(field, "product_id or new product name required")
		case line.ProductID != nil && line.NewProduct != nil:
			return shared.Invalid(field, "product_id and new product are exclusive")
		case line.ProductID != nil && *line.ProductID == uuid.Nil:
			return shared.Invalid(field+".product_id", "invalid")
		}
	}
	return nil
}

func payableDescription(inv Invoice) string {
	if inv.Number != "" {
		return "Purchase invoice " + inv.Number
	}
	return "Purchase invoice " + inv.ID.String()[:8]
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
