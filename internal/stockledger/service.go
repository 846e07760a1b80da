package stockledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/purchase-ledger/internal/observability"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, CostBasisStore) error) error
	ListStockedProducts(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	ListTenants(ctx context.Context) ([]uuid.UUID, error)
	ProductTenant(ctx context.Context, productID uuid.UUID) (uuid.UUID, error)
}

// Service exposes recompute for repair and audit tooling.
type Service struct {
	repo    RepositoryPort
	logger  *slog.Logger
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

// RecomputeProductCost rebuilds one product's cached position. Internal-use
// products keep a zero average cost. Concurrent calls for the same product
// share a single transaction.
func (s *Service) RecomputeProductCost(ctx context.Context, productID uuid.UUID) (Snapshot, error) {
	if productID == uuid.Nil {
		return Snapshot{}, shared.Invalid("product_id", "required")
	}
	v, err, _ := s.group.Do(productID.String(), func() (any, error) {
		var snap Snapshot
		err := s.repo.WithTx(ctx, func(ctx context.Context, store CostBasisStore) error {
			var err error
			snap, err = Refresh(ctx, store, productID)
			return err
		})
		return snap, err
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.metrics.CostRecomputed(1)
	return v.(Snapshot), nil
}

// RecomputeTenantProduct is RecomputeProductCost for a product the tenant
// must own.
func (s *Service) RecomputeTenantProduct(ctx context.Context, tenantID, productID uuid.UUID) (Snapshot, error) {
	if tenantID == uuid.Nil {
		return Snapshot{}, shared.ErrUnauthorized
	}
	owner, err := s.repo.ProductTenant(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	if owner != tenantID {
		return Snapshot{}, shared.NotFound("product", productID)
	}
	return s.RecomputeProductCost(ctx, productID)
}

// RecomputeTenant recomputes every stocked product of a tenant, one
// transaction per product. It returns how many products were rewritten.
func (s *Service) RecomputeTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if tenantID == uuid.Nil {
		return 0, shared.ErrUnauthorized
	}
	ids, err := s.repo.ListStockedProducts(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range Distinct(ids) {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if _, err := s.RecomputeProductCost(ctx, id); err != nil {
			s.logger.Warn("recompute product cost", slog.String("tenant_id", tenantID.String()), slog.String("product_id", id.String()), slog.Any("error", err))
			continue
		}
		done++
	}
	return done, nil
}

// RecomputeAll sweeps every tenant.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	tenants, err := s.repo.ListTenants(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, tenantID := range tenants {
		n, err := s.RecomputeTenant(ctx, tenantID)
		total += n
		if err != nil {
			return total, err
		}
	}
	s.logger.Info("product cost sweep finished", slog.Int("tenants", len(tenants)), slog.Int("products", total))
	return total, nil
}
