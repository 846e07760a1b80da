// Package catalog holds the product record the costing engine reads and
// creates. Stock quantity and average cost have no setter here.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// PGStore implements product persistence over Postgres.
type PGStore struct {
	db db.DBTX
}

// NewPGStore binds the store to a pool or an open transaction.
func NewPGStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

const productColumns = `id, tenant_id, name, sku, price, stock_quantity, average_cost, classification, department, created_at`

// GetProduct loads a tenant's product.
func (s *PGStore) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (Product, error) {
	return s.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, productID)
}

// GetProductForUpdate loads and row-locks a tenant's product.
func (s *PGStore) GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (Product, error) {
	return s.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, productID)
}

// CreateProduct inserts a new product with zero stock and zero average cost.
func (s *PGStore) CreateProduct(ctx context.Context, p Product) error {
	_, err := s.db.Exec(ctx, `INSERT INTO products (id, tenant_id, name, sku, price, stock_quantity, average_cost, classification, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7, $8, $8)`,
		p.ID, p.TenantID, p.Name, p.SKU, money.ToNumeric(p.Price), string(p.Classification), string(p.Department), p.CreatedAt)
	return shared.Persistence("create product", err)
}

// UpdateClassification changes classification and department.
func (s *PGStore) UpdateClassification(ctx context.Context, tenantID, productID uuid.UUID, c Classification, d Department) error {
	tag, err := s.db.Exec(ctx, `UPDATE products SET classification = $3, department = $4, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
		tenantID, productID, string(c), string(d))
	if err != nil {
		return shared.Persistence("update classification", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("product", productID)
	}
	return nil
}

func (s *PGStore) scanOne(ctx context.Context, query string, args ...any) (Product, error) {
	var (
		p                  Product
		price, averageCost pgtype.Numeric
		cls, dept          string
	)
	err := s.db.QueryRow(ctx, query, args...).Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &price, &p.StockQuantity, &averageCost, &cls, &dept, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, shared.Persistence("get product", err)
	}
	p.Price = money.FromNumeric(price)
	p.AverageCost = money.FromNumeric(averageCost)
	p.Classification = Classification(cls)
	p.Department = Department(dept)
	return p, nil
}
