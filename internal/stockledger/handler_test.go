package stockledger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-ledger/internal/tenancy"
)

func TestHandlerRecomputeCost(t *testing.T) {
	store := newMemoryStore()
	tenant := uuid.New()
	id := store.addProduct(tenant, lot(10, 10, "5.00"), lot(5, 5, "8.00"))
	r := chi.NewRouter()
	r.Use(tenancy.Middleware)
	r.Route("/products", NewHandler(nil, NewService(store, nil, nil)).MountRoutes)

	send := func(tenantID uuid.UUID, productID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/products/"+productID+"/recompute-cost", nil)
		req.Header.Set(tenancy.TenantHeader, tenantID.String())
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := send(tenant, id.String())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"stock_quantity":15`)
	require.Contains(t, rr.Body.String(), `"average_cost":"6"`)

	require.Equal(t, http.StatusNotFound, send(uuid.New(), id.String()).Code)
	require.Equal(t, http.StatusBadRequest, send(tenant, "x").Code)
}
