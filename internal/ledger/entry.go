// Package ledger stores the financial transactions (payables, sale costs)
// that the costing engine creates and re-tags.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is income or expense.
type Direction string

const (
	Income  Direction = "INCOME"
	Expense Direction = "EXPENSE"
)

// Status of settlement.
type Status string

const (
	Pending Status = "PENDING"
	Paid    Status = "PAID"
)

// Entry is one ledger transaction.
type Entry struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Type           Direction       `json:"type"`
	Status         Status          `json:"status"`
	DueDate        time.Time       `json:"due_date"`
	CompetenceDate time.Time       `json:"competence_date"`
	InvoiceID      *uuid.UUID      `json:"invoice_id,omitempty"`
	SaleID         *uuid.UUID      `json:"sale_id,omitempty"`
	ProductID      *uuid.UUID      `json:"product_id,omitempty"`
	CategoryID     *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID     *uuid.UUID      `json:"supplier_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ConcernsProduct reports whether a sale entry belongs to the product. Entries
// carrying a product id are matched on it; legacy entries without one fall
// back to a case-sensitive substring match on the description. It is the
// reference rule: saleProductPredicate is its SQL form and must match it.
func (e Entry) ConcernsProduct(productID uuid.UUID, productName string) bool {
	if e.ProductID != nil {
		return *e.ProductID == productID
	}
	return productName != "" && strings.Contains(e.Description, productName)
}

// saleProductPredicate is ConcernsProduct in SQL, with $3 the product id and
// $4 the product name. strpos is case-sensitive like strings.Contains.
const saleProductPredicate = `(product_id = $3 OR (product_id IS NULL AND $4 <> '' AND strpos(description, $4) > 0))`

// HasCategory reports whether the entry is tagged with the category. The
// retag statements express it as category_id = $n, which never matches NULL.
func (e Entry) HasCategory(categoryID uuid.UUID) bool {
	return e.CategoryID != nil && *e.CategoryID == categoryID
}
