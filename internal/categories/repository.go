package categories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/db"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// PGStore implements Store over Postgres.
type PGStore struct {
	db db.DBTX
}

// NewPGStore binds the store to a pool or an open transaction.
func NewPGStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

const categoryColumns = `id, tenant_id, code, name, type, color, is_system, created_at`

// FindSystemCategory matches (tenant, code, is_system).
func (s *PGStore) FindSystemCategory(ctx context.Context, tenantID uuid.UUID, code string) (Category, error) {
	return s.findOne(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE tenant_id = $1 AND code = $2 AND is_system
		ORDER BY created_at LIMIT 1`, tenantID, code)
}

// FindCategoryByCode matches (tenant, code) regardless of the system flag.
func (s *PGStore) FindCategoryByCode(ctx context.Context, tenantID uuid.UUID, code string) (Category, error) {
	return s.findOne(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE tenant_id = $1 AND code = $2
		ORDER BY is_system DESC, created_at LIMIT 1`, tenantID, code)
}

// FindCategoryByName matches (tenant, name, type).
func (s *PGStore) FindCategoryByName(ctx context.Context, tenantID uuid.UUID, name string, typ Type) (Category, error) {
	return s.findOne(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE tenant_id = $1 AND name = $2 AND type = $3
		ORDER BY created_at LIMIT 1`, tenantID, name, string(typ))
}

// CreateCategory inserts a category.
func (s *PGStore) CreateCategory(ctx context.Context, c Category) error {
	_, err := s.db.Exec(ctx, `INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.TenantID, c.Code, c.Name, string(c.Type), c.Color, c.IsSystem, c.CreatedAt)
	return shared.Persistence("create category", err)
}

func (s *PGStore) findOne(ctx context.Context, query string, args ...any) (Category, error) {
	var (
		c   Category
		typ string
	)
	err := s.db.QueryRow(ctx, query, args...).Scan(&c.ID, &c.TenantID, &c.Code, &c.Name, &typ, &c.Color, &c.IsSystem, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, shared.Persistence("find category", err)
	}
	c.Type = Type(typ)
	return c, nil
}

// SeedTenant resolves or creates the system categories in one transaction.
func SeedTenant(ctx context.Context, pool *pgxpool.Pool, tenantID uuid.UUID) ([]Category, error) {
	var out []Category
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		var err error
		out, err = Seed(ctx, NewPGStore(tx), tenantID)
		return err
	})
	return out, err
}
