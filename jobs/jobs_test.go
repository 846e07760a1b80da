package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

type sinkStub struct {
	got []notifications.Notification
	err error
}

func (s *sinkStub) Create(ctx context.Context, n notifications.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, n)
	return nil
}

type recomputerStub struct {
	product  uuid.UUID
	tenant   uuid.UUID
	swept    bool
	err      error
	products int
}

func (r *recomputerStub) RecomputeTenantProduct(ctx context.Context, tenantID, productID uuid.UUID) (stockledger.Snapshot, error) {
	r.tenant = tenantID
	r.product = productID
	return stockledger.Snapshot{ProductID: productID}, r.err
}

func (r *recomputerStub) RecomputeTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	r.tenant = tenantID
	return r.products, r.err
}

func (r *recomputerStub) RecomputeAll(ctx context.Context) (int, error) {
	r.swept = true
	return r.products, r.err
}

func TestNotificationTaskRoundTrip(t *testing.T) {
	invoiceID := uuid.New()
	amount := decimal.RequireFromString("165.00")
	n := notifications.Notification{
		ID:              uuid.New(),
		TenantID:        uuid.New(),
		Type:            notifications.PaymentReview,
		TargetRole:      notifications.RoleFinance,
		Title:           "Review supplier payable",
		LinkedInvoiceID: &invoiceID,
		ExpectedAmount:  &amount,
		DueAt:           time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	task, err := NewNotificationTask(n)
	require.NoError(t, err)
	require.Equal(t, TaskNotificationCreate, task.Type())

	sink := &sinkStub{}
	require.NoError(t, NewNotificationJob(sink, nil, nil).Handle(context.Background(), task))
	require.Len(t, sink.got, 1)
	require.Equal(t, n.ID, sink.got[0].ID)
	require.Equal(t, invoiceID, *sink.got[0].LinkedInvoiceID)
	require.True(t, sink.got[0].ExpectedAmount.Equal(amount))
}

func TestNotificationJobErrors(t *testing.T) {
	bad := asynq.NewTask(TaskNotificationCreate, []byte("{"))
	err := NewNotificationJob(&sinkStub{}, nil, nil).Handle(context.Background(), bad)
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewNotificationTask(notifications.Notification{ID: uuid.New()})
	require.NoError(t, err)
	boom := errors.New("db down")
	err = NewNotificationJob(&sinkStub{err: boom}, nil, nil).Handle(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	var nilJob *NotificationJob
	require.Error(t, nilJob.Handle(context.Background(), task))
}

func TestRecomputeProductTask(t *testing.T) {
	tenant := uuid.New()
	productID := uuid.New()
	task, err := NewRecomputeTask(tenant, productID)
	require.NoError(t, err)

	stub := &recomputerStub{}
	require.NoError(t, NewCostRecomputeJob(stub, nil, nil).HandleProduct(context.Background(), task))
	require.Equal(t, tenant, stub.tenant)
	require.Equal(t, productID, stub.product)

	stub.err = shared.NotFound("product", productID)
	err = NewCostRecomputeJob(stub, nil, nil).HandleProduct(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)

	_, err = NewRecomputeTask(tenant, uuid.Nil)
	require.Error(t, err)
	_, err = NewRecomputeTask(uuid.Nil, productID)
	require.Error(t, err)
}

func TestSweepTaskScopes(t *testing.T) {
	stub := &recomputerStub{products: 4}
	job := NewCostRecomputeJob(stub, nil, nil)

	all, err := NewSweepTask(nil)
	require.NoError(t, err)
	require.NoError(t, job.HandleSweep(context.Background(), all))
	require.True(t, stub.swept)

	tenant := uuid.New()
	scoped, err := NewSweepTask(&tenant)
	require.NoError(t, err)
	var payload SweepPayload
	require.NoError(t, json.Unmarshal(scoped.Payload(), &payload))
	require.Equal(t, tenant, *payload.TenantID)
	require.NoError(t, job.HandleSweep(context.Background(), scoped))
	require.Equal(t, tenant, stub.tenant)

	stub.err = errors.New("pool exhausted")
	require.Error(t, job.HandleSweep(context.Background(), all))
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, nil, nil).MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var out []queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	require.Equal(t, QueueDefault, out[0].Queue)
}

type enqueuerStub struct {
	tasks []*asynq.Task
	err   error
}

func (e *enqueuerStub) Enqueue(ctx context.Context, task *asynq.Task) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Queue: QueueDefault}, nil
}

func newTriggerRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenancy.Middleware)
		r.Route("/jobs", h.MountTenantRoutes)
	})
	return r
}

func TestJobsSweepIsScopedToCallerTenant(t *testing.T) {
	stub := &enqueuerStub{}
	router := newTriggerRouter(NewHandler(nil, stub, nil))
	post := func(path string, tenant uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if tenant != uuid.Nil {
			req.Header.Set(tenancy.TenantHeader, tenant.String())
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusUnauthorized, post("/api/v1/jobs/sweep", uuid.Nil).Code)
	require.Empty(t, stub.tasks)
	require.Equal(t, http.StatusNotFound, post("/jobs/sweep", uuid.Nil).Code)

	tenant := uuid.New()
	rr := post("/api/v1/jobs/sweep?tenant_id="+uuid.NewString(), tenant)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	require.Len(t, stub.tasks, 1)
	require.Equal(t, TaskProductCostSweep, stub.tasks[0].Type())
	var payload SweepPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	require.Equal(t, tenant, *payload.TenantID)

	stub.err = asynq.ErrDuplicateTask
	require.Equal(t, http.StatusConflict, post("/api/v1/jobs/sweep", tenant).Code)

	stub.err = errors.New("redis down")
	require.Equal(t, http.StatusInternalServerError, post("/api/v1/jobs/sweep", tenant).Code)
}

func TestJobsRecomputeTrigger(t *testing.T) {
	stub := &enqueuerStub{}
	router := newTriggerRouter(NewHandler(nil, stub, nil))
	tenant := uuid.New()
	productID := uuid.New()
	post := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(tenancy.TenantHeader, tenant.String())
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := post("/api/v1/jobs/recompute/" + productID.String())
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	require.Len(t, stub.tasks, 1)
	require.Equal(t, TaskProductCostRecompute, stub.tasks[0].Type())

	recomputer := &recomputerStub{}
	require.NoError(t, NewCostRecomputeJob(recomputer, nil, nil).HandleProduct(context.Background(), stub.tasks[0]))
	require.Equal(t, tenant, recomputer.tenant)
	require.Equal(t, productID, recomputer.product)

	require.Equal(t, http.StatusBadRequest, post("/api/v1/jobs/recompute/nope").Code)
}

func TestJobsTriggersDisabledWithoutEnqueuer(t *testing.T) {
	router := newTriggerRouter(NewHandler(nil, nil, nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/sweep", nil)
	req.Header.Set(tenancy.TenantHeader, uuid.NewString())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
