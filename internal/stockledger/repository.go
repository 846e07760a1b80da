package stockledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// PGStore persists lots and is the only writer of products.stock_quantity and
// products.average_cost.
type PGStore struct {
	db db.DBTX
}

// NewPGStore binds the store to a pool or an open transaction.
func NewPGStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

const entryColumns = `id, product_id, invoice_id, quantity, remaining_quantity, unit_cost, raw_unit_cost, created_at`

// ListStockEntries returns every lot of a product.
func (s *PGStore) ListStockEntries(ctx context.Context, productID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT `+entryColumns+` FROM stock_entries WHERE product_id = $1 ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, shared.Persistence("list stock entries", err)
	}
	return scanEntries(rows)
}

// ListStockEntriesByInvoice returns the lots written by one invoice.
func (s *PGStore) ListStockEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT `+entryColumns+` FROM stock_entries WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, shared.Persistence("list invoice stock entries", err)
	}
	return scanEntries(rows)
}

// InsertStockEntry writes a new lot.
func (s *PGStore) InsertStockEntry(ctx context.Context, e Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `INSERT INTO stock_entries (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ProductID, e.InvoiceID, e.Quantity, e.RemainingQuantity,
		money.ToNumeric(e.UnitCost), money.ToNumeric(e.RawUnitCost), createdAt)
	return shared.Persistence("insert stock entry", err)
}

// InvoiceIDsByProduct lists every invoice that ever stocked the product.
func (s *PGStore) InvoiceIDsByProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT invoice_id FROM stock_entries WHERE product_id = $1`, productID)
	if err != nil {
		return nil, shared.Persistence("list invoices by product", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, shared.Persistence("scan invoice ids", err)
	}
	return ids, nil
}

// WriteCostSnapshot overwrites the cached position on the product row.
func (s *PGStore) WriteCostSnapshot(ctx context.Context, snap Snapshot) error {
	tag, err := s.db.Exec(ctx, `UPDATE products SET stock_quantity = $2, average_cost = $3, updated_at = NOW() WHERE id = $1`,
		snap.ProductID, snap.StockQuantity, money.ToNumeric(snap.AverageCost))
	if err != nil {
		return shared.Persistence("write cost snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("product", snap.ProductID)
	}
	return nil
}

// CostBasisExcluded reports whether the product is held for internal use. The
// product row is locked until the transaction ends.
func (s *PGStore) CostBasisExcluded(ctx context.Context, productID uuid.UUID) (bool, error) {
	var excluded bool
	err := s.db.QueryRow(ctx, `SELECT classification = 'INTERNAL_USE' FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&excluded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, shared.NotFound("product", productID)
		}
		return false, shared.Persistence("get product classification", err)
	}
	return excluded, nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			unitCost, rawCost pgtype.Numeric
		)
		if err := rows.Scan(&e.ID, &e.ProductID, &e.InvoiceID, &e.Quantity, &e.RemainingQuantity, &unitCost, &rawCost, &e.CreatedAt); err != nil {
			return nil, shared.Persistence("scan stock entry", err)
		}
		e.UnitCost = money.FromNumeric(unitCost)
		e.RawUnitCost = money.FromNumeric(rawCost)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("iterate stock entries", err)
	}
	return entries, nil
}

// Repository runs ad hoc recomputes outside the invoice workflows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, CostBasisStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewPGStore(tx))
	})
}

// ListStockedProducts returns every product of the tenant that has lots.
func (r *Repository) ListStockedProducts(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT se.product_id
		FROM stock_entries se
		JOIN products p ON p.id = se.product_id
		WHERE p.tenant_id = $1`, tenantID)
	if err != nil {
		return nil, shared.Persistence("list stocked products", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, shared.Persistence("scan product ids", err)
	}
	return ids, nil
}

// ListTenants returns every tenant that owns lots.
func (r *Repository) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT p.tenant_id FROM stock_entries se JOIN products p ON p.id = se.product_id`)
	if err != nil {
		return nil, shared.Persistence("list tenants", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, shared.Persistence("scan tenant ids", err)
	}
	return ids, nil
}

// ProductTenant returns the tenant owning the product.
func (r *Repository) ProductTenant(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT tenant_id FROM products WHERE id = $1`, productID).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, shared.NotFound("product", productID)
		}
		return uuid.Nil, shared.Persistence("get product tenant", err)
	}
	return tenantID, nil
}
