package httpmw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printsdk"
)

// RateLimit limits requests per tenant authenticated by ExtractTenant,
// falling back to the client IP when no tenant is in the request context.
// A count of zero or less disables limiting.
func RateLimit(count int, window time.Duration) func(http.Handler) http.Handler {
	if count <= 0 {
		return func(handler http.Handler) http.Handler {
			return handler
		}
	}

	return httprate.Limit(
		count,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if tenant, ok := r.Context().Value(tenantContextKey{}).(database.Tenant); ok {
				return "tenant:" + tenant.ID.String(), nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpapi.Write(r.Context(), w, http.StatusTooManyRequests, printsdk.Response{
				Message: "You've been rate limited for sending more than " + strconv.Itoa(count) + " requests in " + window.String() + ".",
			})
		}),
	)
}
