package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/money"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// Repository is the Postgres sink.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n Notification) error {
	var expected pgtype.Numeric
	if n.ExpectedAmount != nil {
		expected = money.ToNumeric(*n.ExpectedAmount)
	}
	_, err := r.db.Exec(ctx, `INSERT INTO notifications
		(id, tenant_id, type, target_role, title, description, linked_invoice_id, expected_amount, due_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.TenantID, string(n.Type), string(n.TargetRole), n.Title, n.Description,
		n.LinkedInvoiceID, expected, n.DueAt, n.CreatedAt)
	return shared.Persistence("create notification", err)
}
