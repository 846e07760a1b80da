package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// PGStore implements ledger persistence over Postgres.
type PGStore struct {
	db db.DBTX
}

// NewPGStore binds the store to a pool or an open transaction.
func NewPGStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

const entryColumns = `id, tenant_id, description, amount, type, status, due_date, competence_date,
	invoice_id, sale_id, product_id, category_id, supplier_id, created_at`

// InsertLedgerEntry writes a transaction.
func (s *PGStore) InsertLedgerEntry(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, `INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.TenantID, e.Description, money.ToNumeric(e.Amount), string(e.Type), string(e.Status),
		pgtype.Date{Time: e.DueDate, Valid: true}, pgtype.Date{Time: e.CompetenceDate, Valid: true},
		e.InvoiceID, e.SaleID, e.ProductID, e.CategoryID, e.SupplierID, e.CreatedAt)
	return shared.Persistence("insert ledger entry", err)
}

// ListLedgerEntriesByInvoice returns the entries an invoice produced.
func (s *PGStore) ListLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE tenant_id = $1 AND invoice_id = $2 ORDER BY created_at`, tenantID, invoiceID)
	if err != nil {
		return nil, shared.Persistence("list ledger entries", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			amount          pgtype.Numeric
			typ, status     string
			due, competence pgtype.Date
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Description, &amount, &typ, &status, &due, &competence,
			&e.InvoiceID, &e.SaleID, &e.ProductID, &e.CategoryID, &e.SupplierID, &e.CreatedAt); err != nil {
			return nil, shared.Persistence("scan ledger entry", err)
		}
		e.Amount = money.FromNumeric(amount)
		e.Type = Direction(typ)
		e.Status = Status(status)
		e.DueDate = due.Time
		e.CompetenceDate = competence.Time
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("iterate ledger entries", err)
	}
	return out, nil
}

// DeleteLedgerEntriesByInvoice removes every entry referencing the invoice.
func (s *PGStore) DeleteLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM ledger_entries WHERE tenant_id = $1 AND invoice_id = $2`, tenantID, invoiceID)
	if err != nil {
		return 0, shared.Persistence("delete ledger entries", err)
	}
	return tag.RowsAffected(), nil
}

// RetagInvoiceEntries moves entries of the given invoices from one category to another.
func (s *PGStore) RetagInvoiceEntries(ctx context.Context, tenantID uuid.UUID, invoiceIDs []uuid.UUID, from, to uuid.UUID) (int64, error) {
	if len(invoiceIDs) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `UPDATE ledger_entries SET category_id = $4
		WHERE tenant_id = $1 AND invoice_id = ANY($2) AND category_id = $3`,
		tenantID, invoiceIDs, from, to)
	if err != nil {
		return 0, shared.Persistence("retag invoice entries", err)
	}
	return tag.RowsAffected(), nil
}

// RetagSaleEntries moves a product's sale entries between categories using
// the same rule as Entry.ConcernsProduct.
func (s *PGStore) RetagSaleEntries(ctx context.Context, tenantID uuid.UUID, saleIDs []uuid.UUID, productID uuid.UUID, productName string, from, to uuid.UUID) (int64, error) {
	if len(saleIDs) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `UPDATE ledger_entries SET category_id = $6
		WHERE tenant_id = $1 AND sale_id = ANY($2) AND category_id = $5
		  AND `+saleProductPredicate,
		tenantID, saleIDs, productID, productName, from, to)
	if err != nil {
		return 0, shared.Persistence("retag sale entries", err)
	}
	return tag.RowsAffected(), nil
}

// SaleIDsByProduct lists every sale containing the product.
func (s *PGStore) SaleIDsByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT sale_id FROM sale_items WHERE tenant_id = $1 AND product_id = $2`, tenantID, productID)
	if err != nil {
		return nil, shared.Persistence("list sales by product", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, shared.Persistence("scan sale ids", err)
	}
	return ids, nil
}
