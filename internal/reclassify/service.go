// Package reclassify moves a product out of the resale cost basis and
// re-tags its cost history from cost of goods sold to an operational
// expense category.
package reclassify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/catalog"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/observability"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	stockledger.Store
	categories.Store

	GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (catalog.Product, error)
	UpdateClassification(ctx context.Context, tenantID, productID uuid.UUID, c catalog.Classification, d catalog.Department) error
	SaleIDsByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]uuid.UUID, error)
	InvoiceIDsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	RetagSaleEntries(ctx context.Context, tenantID uuid.UUID, saleIDs []uuid.UUID, productID uuid.UUID, productName string, from, to uuid.UUID) (int64, error)
	RetagInvoiceEntries(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID, from, to uuid.UUID) (int64, error)
}

// Repository runs a unit of work in one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Result reports what a reclassification changed.
type Result struct {
	ProductID        uuid.UUID          `json:"product_id"`
	Department       catalog.Department `json:"department"`
	TargetCategoryID uuid.UUID          `json:"target_category_id"`
	SaleEntries      int64              `json:"sale_entries_moved"`
	InvoiceEntries   int64              `json:"invoice_entries_moved"`
}

// TargetCode maps a department to its operational expense category.
func TargetCode(d catalog.Department) string {
	switch d {
	case catalog.DepartmentLogistics:
		return categories.CodeFreight
	default:
		return categories.CodeOperational
	}
}

// Service runs reclassifications.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

// ReclassifyProduct marks the product internal-use under the department,
// moves its cost-of-goods entries to the department's category and drops
// it from the cost basis. The whole pass commits or nothing does. A product
// that is already internal-use only has its department updated.
func (s *Service) ReclassifyProduct(ctx context.Context, tenantID, productID uuid.UUID, department string) (Result, error) {
	if tenantID == uuid.Nil {
		return Result{}, shared.ErrUnauthorized
	}
	if productID == uuid.Nil {
		return Result{}, shared.Invalid("product_id", "required")
	}
	dept := catalog.ParseDepartment(department)
	res := Result{ProductID: productID, Department: dept}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		res.SaleEntries, res.InvoiceEntries, res.TargetCategoryID = 0, 0, uuid.Nil
		product, err := tx.GetProductForUpdate(ctx, tenantID, productID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFound("product", productID)
			}
			return fmt.Errorf("reclassify: load product: %w", err)
		}
		if product.Classification == catalog.InternalUse {
			return tx.UpdateClassification(ctx, tenantID, productID, catalog.InternalUse, dept)
		}

		target, err := resolve(ctx, tx, tenantID, TargetCode(dept))
		if err != nil {
			return err
		}
		source, err := resolve(ctx, tx, tenantID, categories.CodeCostOfGoodsSold)
		if err != nil {
			return err
		}
		res.TargetCategoryID = target.ID

		saleIDs, err := tx.SaleIDsByProduct(ctx, tenantID, productID)
		if err != nil {
			return fmt.Errorf("reclassify: list sales: %w", err)
		}
		res.SaleEntries, err = tx.RetagSaleEntries(ctx, tenantID, saleIDs, productID, product.Name, source.ID, target.ID)
		if err != nil {
			return fmt.Errorf("reclassify: retag sale entries: %w", err)
		}

		invoiceIDs, err := tx.InvoiceIDsByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("reclassify: list invoices: %w", err)
		}
		res.InvoiceEntries, err = tx.RetagInvoiceEntries(ctx, tenantID, invoiceIDs, source.ID, target.ID)
		if err != nil {
			return fmt.Errorf("reclassify: retag invoice entries: %w", err)
		}

		if err := tx.UpdateClassification(ctx, tenantID, productID, catalog.InternalUse, dept); err != nil {
			return fmt.Errorf("reclassify: update product: %w", err)
		}
		if _, err := stockledger.ExcludeFromCostBasis(ctx, tx, productID); err != nil {
			return fmt.Errorf("reclassify: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.metrics.EntriesReclassified(res.SaleEntries + res.InvoiceEntries)
	s.logger.Info("product reclassified",
		slog.String("tenant_id", tenantID.String()),
		slog.String("product_id", productID.String()),
		slog.String("department", string(dept)),
		slog.Int64("sale_entries", res.SaleEntries),
		slog.Int64("invoice_entries", res.InvoiceEntries))
	return res, nil
}

func resolve(ctx context.Context, store categories.Store, tenantID uuid.UUID, code string) (categories.Category, error) {
	c, err := categories.Resolve(ctx, store, tenantID, code)
	if errors.Is(err, categories.ErrUnresolved) {
		return categories.Category{}, fmt.Errorf("reclassify: %w", &shared.NotFoundError{Entity: "category", ID: code})
	}
	if err != nil {
		return categories.Category{}, fmt.Errorf("reclassify: %w", err)
	}
	return c, nil
}
