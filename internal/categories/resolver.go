package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// ErrUnresolved indicates no category matched any lookup tier.
var ErrUnresolved = errors.New("categories: category could not be resolved")

// Store is the category persistence the resolver needs. Finders return an
// error matching shared.ErrNotFound when nothing matches.
type Store interface {
	FindSystemCategory(ctx context.Context, tenantID uuid.UUID, code string) (Category, error)
	FindCategoryByCode(ctx context.Context, tenantID uuid.UUID, code string) (Category, error)
	FindCategoryByName(ctx context.Context, tenantID uuid.UUID, name string, typ Type) (Category, error)
	CreateCategory(ctx context.Context, c Category) error
}

type finder func(ctx context.Context) (Category, error)

// first walks the tiers in order and returns the first hit.
func first(ctx context.Context, tiers ...finder) (Category, bool, error) {
	for _, find := range tiers {
		c, err := find(ctx)
		if err == nil {
			return c, true, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return Category{}, false, err
		}
	}
	return Category{}, false, nil
}

// ResolveOrCreate looks the category up by system code, then by name and
// type, and creates it as a system category when both miss.
func ResolveOrCreate(ctx context.Context, store Store, tenantID uuid.UUID, spec Spec) (Category, error) {
	if tenantID == uuid.Nil {
		return Category{}, shared.ErrUnauthorized
	}
	c, ok, err := first(ctx,
		func(ctx context.Context) (Category, error) { return store.FindSystemCategory(ctx, tenantID, spec.Code) },
		func(ctx context.Context) (Category, error) { return store.FindCategoryByName(ctx, tenantID, spec.Name, spec.Type) },
	)
	if err != nil {
		return Category{}, fmt.Errorf("categories: resolve %s: %w", spec.Code, err)
	}
	if ok {
		return c, nil
	}
	c = Category{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Code:      spec.Code,
		Name:      spec.Name,
		Type:      spec.Type,
		Color:     spec.Color,
		IsSystem:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateCategory(ctx, c); err != nil {
		return Category{}, fmt.Errorf("categories: create %s: %w", spec.Code, err)
	}
	return c, nil
}

// Resolve looks the category up by system code, then by plain code. It never
// creates.
func Resolve(ctx context.Context, store Store, tenantID uuid.UUID, code string) (Category, error) {
	if tenantID == uuid.Nil {
		return Category{}, shared.ErrUnauthorized
	}
	c, ok, err := first(ctx,
		func(ctx context.Context) (Category, error) { return store.FindSystemCategory(ctx, tenantID, code) },
		func(ctx context.Context) (Category, error) { return store.FindCategoryByCode(ctx, tenantID, code) },
	)
	if err != nil {
		return Category{}, fmt.Errorf("categories: resolve %s: %w", code, err)
	}
	if !ok {
		return Category{}, fmt.Errorf("%w: code %s", ErrUnresolved, code)
	}
	return c, nil
}

// Seed ensures the system categories exist for a tenant.
func Seed(ctx context.Context, store Store, tenantID uuid.UUID) ([]Category, error) {
	out := make([]Category, 0, len(SystemSpecs))
	for _, spec := range SystemSpecs {
		c, err := ResolveOrCreate(ctx, store, tenantID, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
