package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/purchase-ledger/internal/ledger"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

// PaymentStatus enumerates invoice settlement states.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// DefaultPayableTermDays is the fixed net term of the generated payable.
const DefaultPayableTermDays = 30

// Invoice is a committed supplier invoice.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	Number        string          `json:"invoice_number,omitempty"`
	Key           string          `json:"invoice_key,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	EntryDate     time.Time       `json:"entry_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	FreightCost   decimal.Decimal `json:"freight_cost"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	OtherCosts    decimal.Decimal `json:"other_costs"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceDetail is an invoice with the records it produced.
type InvoiceDetail struct {
	Invoice
	Entries  []stockledger.Entry `json:"stock_entries"`
	Payables []ledger.Entry      `json:"payables"`
}

// NewProductInput requests a catalog product created on the fly.
type NewProductInput struct {
	Name string
	SKU  string
}

// LineInput is one invoice line as submitted. Exactly one of ProductID and
// NewProduct is set.
type LineInput struct {
	ProductID   *uuid.UUID
	NewProduct  *NewProductInput
	Quantity    int64
	RawUnitCost decimal.Decimal
}

// CreateInvoiceInput carries everything CreateInvoice needs.
type CreateInvoiceInput struct {
	TenantID      uuid.UUID
	ActorID       uuid.UUID
	Lines         []LineInput
	FreightCost   decimal.Decimal
	TaxRate       decimal.Decimal
	OtherCosts    decimal.Decimal
	EntryDate     time.Time
	SupplierID    *uuid.UUID
	InvoiceNumber string
	InvoiceKey    string
	Notes         string
}
