package stockledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
)

// Entry is one acquired lot: a purchase invoice line.
type Entry struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	InvoiceID         uuid.UUID       `json:"invoice_id"`
	Quantity          int64           `json:"quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	RawUnitCost       decimal.Decimal `json:"raw_unit_cost"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Snapshot is the derived stock position cached on a product.
type Snapshot struct {
	ProductID     uuid.UUID       `json:"product_id"`
	StockQuantity int64           `json:"stock_quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
}

// ErrCorruptEntry indicates remaining quantity outside [0, quantity].
var ErrCorruptEntry = errors.New("stockledger: remaining quantity out of range")

// Validate checks the lot invariant 0 <= remaining <= quantity.
func (e Entry) Validate() error {
	if e.Quantity <= 0 || e.RemainingQuantity < 0 || e.RemainingQuantity > e.Quantity {
		return ErrCorruptEntry
	}
	return nil
}

// Compute derives the perpetual weighted-average position from live lots.
// Lots with nothing remaining carry zero weight.
func Compute(productID uuid.UUID, entries []Entry) (Snapshot, error) {
	var qty int64
	value := decimal.Zero
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return Snapshot{}, err
		}
		if e.RemainingQuantity == 0 {
			continue
		}
		qty += e.RemainingQuantity
		value = value.Add(e.UnitCost.Mul(decimal.NewFromInt(e.RemainingQuantity)))
	}
	snap := Snapshot{ProductID: productID, StockQuantity: qty, AverageCost: decimal.Zero}
	if qty > 0 {
		snap.AverageCost = money.Round2(value.Div(decimal.NewFromInt(qty)))
	}
	return snap, nil
}
