package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Classification tells whether a product is held for resale.
type Classification string

const (
	ForResale   Classification = "FOR_RESALE"
	InternalUse Classification = "INTERNAL_USE"
)

// Department routes internal consumption to an expense category.
type Department string

const (
	DepartmentLogistics      Department = "LOGISTICS"
	DepartmentAdministrative Department = "ADMINISTRATIVE"
	DepartmentMaintenance    Department = "MAINTENANCE"
)

// ParseDepartment normalises user input; unknown values map to administrative.
func ParseDepartment(s string) Department {
	switch Department(strings.ToUpper(strings.TrimSpace(s))) {
	case DepartmentLogistics:
		return DepartmentLogistics
	case DepartmentMaintenance:
		return DepartmentMaintenance
	default:
		return DepartmentAdministrative
	}
}

// Product is the catalog record. StockQuantity and AverageCost are derived
// from stock lots and are written only by the stock ledger.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  int64           `json:"stock_quantity"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	Classification Classification  `json:"classification"`
	Department     Department      `json:"department"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NeedsPricing reports whether the product has no sale price yet.
func (p Product) NeedsPricing() bool {
	return !p.Price.IsPositive()
}

// NewProduct builds an unpriced, unstocked product; pricing is deferred.
func NewProduct(tenantID uuid.UUID, name, sku string) Product {
	return Product{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           strings.TrimSpace(name),
		SKU:            strings.TrimSpace(sku),
		Price:          decimal.Zero,
		AverageCost:    decimal.Zero,
		Classification: ForResale,
		CreatedAt:      time.Now().UTC(),
	}
}
