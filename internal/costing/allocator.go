// Package costing distributes indirect invoice costs across line items.
package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
)

// ErrNoLines is returned when an allocation is requested for an empty invoice.
var ErrNoLines = errors.New("costing: no lines to allocate")

// ErrInvalidQuantity indicates a non-positive line quantity.
var ErrInvalidQuantity = errors.New("costing: quantity must be > 0")

// ErrNegativeAmount indicates a negative cost or rate.
var ErrNegativeAmount = errors.New("costing: amounts must be >= 0")

// Line is one invoice line before allocation.
type Line struct {
	Quantity    int64
	RawUnitCost decimal.Decimal
}

// Charges are the invoice-level indirect costs.
type Charges struct {
	Freight decimal.Decimal
	// TaxRate is a fraction: 0.15 means 15%.
	TaxRate decimal.Decimal
	Other   decimal.Decimal
}

// LineAllocation is the costed result for one line.
type LineAllocation struct {
	Quantity          int64
	RawUnitCost       decimal.Decimal
	AllocatedUnitCost decimal.Decimal
	TotalLineCost     decimal.Decimal
}

// Allocation is the costed invoice.
type Allocation struct {
	Subtotal  decimal.Decimal
	TotalCost decimal.Decimal
	Lines     []LineAllocation
}

// LineError identifies the offending line (1-based).
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Allocate spreads freight and other costs over lines in proportion to each
// line's share of the subtotal, then applies tax. Line totals and unit costs
// are rounded to cents; the invoice total is the sum of rounded line totals.
// When the subtotal is zero nothing indirect is allocated.
func Allocate(lines []Line, charges Charges) (Allocation, error) {
	if len(lines) == 0 {
		return Allocation{}, ErrNoLines
	}
	if charges.Freight.IsNegative() || charges.TaxRate.IsNegative() || charges.Other.IsNegative() {
		return Allocation{}, ErrNegativeAmount
	}

	gross := make([]decimal.Decimal, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return Allocation{}, &LineError{Line: i + 1, Err: ErrInvalidQuantity}
		}
		if line.RawUnitCost.IsNegative() {
			return Allocation{}, &LineError{Line: i + 1, Err: ErrNegativeAmount}
		}
		gross[i] = line.RawUnitCost.Mul(decimal.NewFromInt(line.Quantity))
		subtotal = subtotal.Add(gross[i])
	}

	taxFactor := decimal.NewFromInt(1).Add(charges.TaxRate)
	result := Allocation{
		Subtotal: money.Round2(subtotal),
		Lines:    make([]LineAllocation, len(lines)),
	}
	total := decimal.Zero
	for i, line := range lines {
		var freightShare, otherShare decimal.Decimal
		if subtotal.IsPositive() {
			freightShare = charges.Freight.Mul(gross[i]).Div(subtotal)
			otherShare = charges.Other.Mul(gross[i]).Div(subtotal)
		}
		lineTotal := money.Round2(gross[i].Add(freightShare).Add(otherShare).Mul(taxFactor))
		unitCost := money.Round2(lineTotal.Div(decimal.NewFromInt(line.Quantity)))
		result.Lines[i] = LineAllocation{
			Quantity:          line.Quantity,
			RawUnitCost:       line.RawUnitCost,
			AllocatedUnitCost: unitCost,
			TotalLineCost:     lineTotal,
		}
		total = total.Add(lineTotal)
	}
	result.TotalCost = money.Round2(total)
	return result, nil
}
