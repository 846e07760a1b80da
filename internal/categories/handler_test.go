package categories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

func TestHandlerSeedTenant(t *testing.T) {
	store := &memoryStore{}
	h := NewHandler(nil, func(ctx context.Context, tenantID uuid.UUID) ([]Category, error) {
		return Seed(ctx, store, tenantID)
	})
	r := chi.NewRouter()
	r.Use(tenancy.Middleware)
	r.Route("/categories", h.MountRoutes)

	tenant := uuid.New()
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/categories/seed", nil)
		req.Header.Set(tenancy.TenantHeader, tenant.String())
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out []Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, len(SystemSpecs))
	for _, c := range out {
		require.Equal(t, tenant, c.TenantID)
	}

	require.Equal(t, http.StatusOK, send().Code)
	require.Equal(t, len(SystemSpecs), store.creates)
}
