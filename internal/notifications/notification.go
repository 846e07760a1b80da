// Package notifications persists the operator alerts raised after a purchase
// invoice commits.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Type identifies the alert.
type Type string

const (
	PricingNeeded Type = "PRICING_NEEDED"
	PaymentReview Type = "PAYMENT_REVIEW"
)

// Role is the team an alert is addressed to.
type Role string

const (
	RoleSales   Role = "SALES"
	RoleFinance Role = "FINANCE"
)

// Notification is one alert record.
type Notification struct {
	ID              uuid.UUID        `json:"id"`
	TenantID        uuid.UUID        `json:"tenant_id"`
	Type            Type             `json:"type"`
	TargetRole      Role             `json:"target_role"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	LinkedInvoiceID *uuid.UUID       `json:"linked_invoice_id,omitempty"`
	ExpectedAmount  *decimal.Decimal `json:"expected_amount,omitempty"`
	DueAt           time.Time        `json:"due_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Sink receives notifications.
type Sink interface {
	Create(ctx context.Context, n Notification) error
}

// Formatter renders alert text for a locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a Formatter; an unparsable locale falls back to pt-BR.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Amount renders a currency value with the locale's separators.
func (f *Formatter) Amount(d decimal.Decimal) string {
	return f.printer.Sprintf("%.2f", d.InexactFloat64())
}

// PricingNeeded asks sales to price products that came in without a price.
func (f *Formatter) PricingNeeded(tenantID, invoiceID uuid.UUID, productNames []string, at time.Time) Notification {
	title := "Products awaiting a sale price"
	if len(productNames) == 1 {
		title = fmt.Sprintf("Set a sale price for %s", productNames[0])
	}
	return Notification{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Type:            PricingNeeded,
		TargetRole:      RoleSales,
		Title:           title,
		Description:     "Received without a sale price: " + strings.Join(productNames, ", "),
		LinkedInvoiceID: &invoiceID,
		DueAt:           at,
		CreatedAt:       at,
	}
}

// PaymentReview asks finance to review the payable an invoice created.
func (f *Formatter) PaymentReview(tenantID, invoiceID uuid.UUID, amount decimal.Decimal, dueAt, at time.Time) Notification {
	expected := amount
	return Notification{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Type:            PaymentReview,
		TargetRole:      RoleFinance,
		Title:           "Review supplier payable",
		Description:     fmt.Sprintf("Payable of %s due on %s", f.Amount(amount), dueAt.Format(time.DateOnly)),
		LinkedInvoiceID: &invoiceID,
		ExpectedAmount:  &expected,
		DueAt:           dueAt,
		CreatedAt:       at,
	}
}
