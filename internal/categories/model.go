package categories

import (
	"time"

	"github.com/google/uuid"
)

// Type separates income from expense buckets.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// Stable plan-of-accounts codes used by the costing engine.
const (
	CodeCostOfGoodsSold = "2.1"
	CodeFreight         = "2.4"
	CodeOperational     = "3"
)

// Category is a plan-of-accounts node.
type Category struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Color     string    `json:"color"`
	IsSystem  bool      `json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
}

// Spec describes a category to resolve and, if absent, create.
type Spec struct {
	Code  string
	Name  string
	Type  Type
	Color string
}

var (
	// CostOfGoodsSold is the CMV bucket every purchase payable lands in.
	CostOfGoodsSold = Spec{Code: CodeCostOfGoodsSold, Name: "Cost of Goods Sold", Type: TypeExpense, Color: "#ef4444"}
	// Freight receives reclassified logistics consumption.
	Freight = Spec{Code: CodeFreight, Name: "Freight", Type: TypeExpense, Color: "#f97316"}
	// Operational receives reclassified administrative consumption.
	Operational = Spec{Code: CodeOperational, Name: "Fixed/Operational Expenses", Type: TypeExpense, Color: "#6366f1"}
)

// SystemSpecs are seeded for every tenant.
var SystemSpecs = []Spec{CostOfGoodsSold, Freight, Operational}
