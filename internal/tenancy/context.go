// Package tenancy carries the tenant and actor resolved by the upstream
// authentication layer.
package tenancy

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/odyssey-erp/purchase-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
)

// Header names set by the authenticating proxy.
const (
	TenantHeader = "X-Tenant-ID"
	ActorHeader  = "X-Actor-ID"
)

// Principal identifies who is acting for which tenant.
type Principal struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
}

type principalContextKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext extracts the principal; a missing tenant is an authorization failure.
func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || p.TenantID == uuid.Nil {
		return Principal{}, shared.ErrUnauthorized
	}
	return p, nil
}

// Middleware resolves the principal from request headers and rejects
// requests without a valid tenant.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := uuid.Parse(r.Header.Get(TenantHeader))
		if err != nil || tenantID == uuid.Nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		p := Principal{TenantID: tenantID}
		if actor := r.Header.Get(ActorHeader); actor != "" {
			actorID, err := uuid.Parse(actor)
			if err != nil {
				httpx.RespondError(w, shared.Invalid(ActorHeader, "must be a uuid"))
				return
			}
			p.ActorID = actorID
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
