package purchasing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/purchase-ledger/internal/catalog"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/ledger"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type (
	stockStore    = stockledger.PGStore
	categoryStore = categories.PGStore
	productStore  = catalog.PGStore
	ledgerStore   = ledger.PGStore
)

// txRepo composes the per-package stores over one transaction.
type txRepo struct {
	*stockStore
	*categoryStore
	*productStore
	*ledgerStore
	conn db.DBTX
}

func newTxRepo(conn db.DBTX) *txRepo {
	return &txRepo{
		stockStore:    stockledger.NewPGStore(conn),
		categoryStore: categories.NewPGStore(conn),
		productStore:  catalog.NewPGStore(conn),
		ledgerStore:   ledger.NewPGStore(conn),
		conn:          conn,
	}
}

// WithTx wraps callback in repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepo(tx))
	})
}

const invoiceColumns = `id, tenant_id, invoice_number, invoice_key, supplier_id, entry_date, subtotal,
	freight_cost, tax_rate, other_costs, total_cost, payment_status, notes, created_by, created_at`

func (t *txRepo) SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error) {
	var ok bool
	err := t.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE tenant_id = $1 AND id = $2)`, tenantID, supplierID).Scan(&ok)
	if err != nil {
		return false, shared.Persistence("lookup supplier", err)
	}
	return ok, nil
}

func (t *txRepo) InsertInvoice(ctx context.Context, inv Invoice) error {
	_, err := t.conn.Exec(ctx, `INSERT INTO purchase_invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		inv.ID, inv.TenantID, inv.Number, inv.Key, inv.SupplierID,
		pgtype.Date{Time: inv.EntryDate, Valid: true},
		money.ToNumeric(inv.Subtotal), money.ToNumeric(inv.FreightCost), money.ToNumeric(inv.TaxRate),
		money.ToNumeric(inv.OtherCosts), money.ToNumeric(inv.TotalCost),
		string(inv.PaymentStatus), inv.Notes, inv.CreatedBy, inv.CreatedAt)
	return shared.Persistence("insert invoice", err)
}

func (t *txRepo) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error) {
	var (
		inv                                  Invoice
		entry                                pgtype.Date
		subtotal, freight, tax, other, total pgtype.Numeric
		status                               string
	)
	err := t.conn.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM purchase_invoices WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, invoiceID).Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.Key, &inv.SupplierID, &entry,
		&subtotal, &freight, &tax, &other, &total, &status, &inv.Notes, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, shared.Persistence("get invoice", err)
	}
	inv.EntryDate = entry.Time
	inv.Subtotal = money.FromNumeric(subtotal)
	inv.FreightCost = money.FromNumeric(freight)
	inv.TaxRate = money.FromNumeric(tax)
	inv.OtherCosts = money.FromNumeric(other)
	inv.TotalCost = money.FromNumeric(total)
	inv.PaymentStatus = PaymentStatus(status)
	return inv, nil
}

// DeleteInvoice removes the header; stock_entries go with it by cascade.
func (t *txRepo) DeleteInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	tag, err := t.conn.Exec(ctx, `DELETE FROM purchase_invoices WHERE tenant_id = $1 AND id = $2`, tenantID, invoiceID)
	if err != nil {
		return shared.Persistence("delete invoice", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("invoice", invoiceID)
	}
	return nil
}
