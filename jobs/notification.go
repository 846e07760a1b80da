package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/purchase-ledger/internal/jobs"
	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
)

// NotificationJob persists notifications enqueued after an invoice commits.
type NotificationJob struct {
	Sink    notifications.Sink
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNotificationJob initialises the notification handler.
func NewNotificationJob(sink notifications.Sink, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotificationJob {
	return &NotificationJob{Sink: sink, Logger: logger, Metrics: metrics}
}

// Handle writes the notification through the sink.
func (j *NotificationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sink == nil {
		return errors.New("notification job: handler not configured")
	}
	var n notifications.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return fmt.Errorf("notification job: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskNotificationCreate)
	defer func() { err = tracker.End(err) }()

	if err := j.Sink.Create(ctx, n); err != nil {
		j.logger().Warn("persist notification",
			slog.String("notification_id", n.ID.String()),
			slog.String("type", string(n.Type)),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (j *NotificationJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
