package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/tenantkey"
	"github.com/printwatch/printwatch/printsdk"
)

type tenantContextKey struct{}

// Tenant returns the tenant from the ExtractTenant handler.
func Tenant(r *http.Request) database.Tenant {
	tenant, ok := r.Context().Value(tenantContextKey{}).(database.Tenant)
	if !ok {
		panic("developer error: tenant middleware not provided")
	}
	return tenant
}

// ExtractTenant authenticates the request by its tenant API key. A missing
// key is rejected with 401 and a key that does not match any tenant with 403.
func ExtractTenant(db database.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(printsdk.APIKeyHeader))
			if key == "" {
				httpapi.Unauthorized(rw, "Missing "+printsdk.APIKeyHeader+" header.")
				return
			}

			id, secret, err := tenantkey.Parse(key)
			if err != nil {
				httpapi.Forbidden(rw)
				return
			}
			tenant, err := db.GetTenantByID(ctx, id)
			if httpapi.Is404Error(err) {
				httpapi.Forbidden(rw)
				return
			}
			if err != nil {
				httpapi.InternalServerError(rw, err)
				return
			}
			if !tenantkey.Matches(tenant, secret) {
				httpapi.Forbidden(rw)
				return
			}

			if rlc := RequestLoggerFromContext(ctx); rlc != nil {
				rlc.WithFields(map[string]any{"tenant_id": tenant.ID})
			}
			ctx = context.WithValue(ctx, tenantContextKey{}, tenant)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
