package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotifications carries post-commit alerts.
	QueueNotifications = "notifications"

	// TaskNotificationCreate persists one post-commit notification.
	TaskNotificationCreate = "notification:create"
	// TaskProductCostRecompute rebuilds one product's cached cost position.
	TaskProductCostRecompute = "stockledger:recompute"
	// TaskProductCostSweep rebuilds every stocked product, optionally for one tenant.
	TaskProductCostSweep = "stockledger:sweep"
)

// NewNotificationTask constructs an Asynq task. The notification id doubles
// as the task id so a retried enqueue cannot duplicate the alert.
func NewNotificationTask(n notifications.Notification) (*asynq.Task, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationCreate, body,
		asynq.Queue(QueueNotifications),
		asynq.TaskID(n.ID.String()),
		asynq.MaxRetry(5),
	), nil
}

// RecomputePayload identifies the product to rebuild and the tenant that
// must own it.
type RecomputePayload struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	ProductID uuid.UUID `json:"product_id"`
}

// NewRecomputeTask constructs an Asynq task for one tenant product.
func NewRecomputeTask(tenantID, productID uuid.UUID) (*asynq.Task, error) {
	if tenantID == uuid.Nil || productID == uuid.Nil {
		return nil, fmt.Errorf("jobs: recompute task requires a tenant and a product id")
	}
	body, err := json.Marshal(RecomputePayload{TenantID: tenantID, ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductCostRecompute, body, asynq.Queue(QueueDefault)), nil
}

// SweepPayload scopes a sweep. A nil tenant sweeps all tenants. The payload
// is part of the uniqueness key, so it carries the scope only.
type SweepPayload struct {
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// NewSweepTask constructs an Asynq task for the recompute sweep.
func NewSweepTask(tenantID *uuid.UUID) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductCostSweep, body,
		asynq.Queue(QueueDefault),
		asynq.Unique(time.Hour),
		asynq.Timeout(30*time.Minute),
	), nil
}
