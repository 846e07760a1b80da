package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/purchase-ledger/internal/jobs"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

// CostRecomputer is the part of the stock ledger service the jobs drive.
type CostRecomputer interface {
	RecomputeTenantProduct(ctx context.Context, tenantID, productID uuid.UUID) (stockledger.Snapshot, error)
	RecomputeTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	RecomputeAll(ctx context.Context) (int, error)
}

// CostRecomputeJob runs single-product recomputes and the repair sweep.
type CostRecomputeJob struct {
	Service CostRecomputer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCostRecomputeJob initialises the recompute handlers.
func NewCostRecomputeJob(service CostRecomputer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CostRecomputeJob {
	return &CostRecomputeJob{Service: service, Logger: logger, Metrics: metrics}
}

// HandleProduct recomputes one product of the tenant named in the payload.
func (j *CostRecomputeJob) HandleProduct(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("cost recompute: handler not configured")
	}
	var payload RecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("cost recompute: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskProductCostRecompute)
	defer func() { err = tracker.End(err) }()

	snap, err := j.Service.RecomputeTenantProduct(ctx, payload.TenantID, payload.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrUnauthorized) {
			return fmt.Errorf("cost recompute: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.logger().Info("product cost recomputed",
		slog.String("product_id", snap.ProductID.String()),
		slog.Int64("stock_quantity", snap.StockQuantity),
		slog.String("average_cost", snap.AverageCost.StringFixed(2)))
	return nil
}

// HandleSweep recomputes every stocked product of one tenant or of all.
func (j *CostRecomputeJob) HandleSweep(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("cost sweep: handler not configured")
	}
	var payload SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("cost sweep: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskProductCostSweep)
	defer func() { err = tracker.End(err) }()

	var n int
	if payload.TenantID != nil {
		n, err = j.Service.RecomputeTenant(ctx, *payload.TenantID)
	} else {
		n, err = j.Service.RecomputeAll(ctx)
	}
	j.Metrics.AddSweptProducts(n)
	if err != nil {
		j.logger().Error("cost sweep failed", slog.Int("products", n), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *CostRecomputeJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
