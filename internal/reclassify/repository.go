package reclassify

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/purchase-ledger/internal/catalog"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/ledger"
	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
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

type txRepo struct {
	*stockStore
	*categoryStore
	*productStore
	*ledgerStore
}

// WithTx wraps callback in repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			stockStore:    stockledger.NewPGStore(tx),
			categoryStore: categories.NewPGStore(tx),
			productStore:  catalog.NewPGStore(tx),
			ledgerStore:   ledger.NewPGStore(tx),
		})
	})
}
