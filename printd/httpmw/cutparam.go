package httpmw

import (
	"context"
	"net/http"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/httpapi"
)

type cutParamContextKey struct{}

// CutParam returns the cut from the ExtractCutParam handler.
func CutParam(r *http.Request) database.Cut {
	cut, ok := r.Context().Value(cutParamContextKey{}).(database.Cut)
	if !ok {
		panic("developer error: cut param middleware not provided")
	}
	return cut
}

// ExtractCutParam grabs a cut from the "cut" URL parameter, scoped to the
// authenticated tenant like ExtractDeviceParam.
func ExtractCutParam(db database.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			cutID, ok := parseUUID(rw, r, "cut")
			if !ok {
				return
			}
			cut, err := db.GetCutByID(ctx, cutID)
			if httpapi.Is404Error(err) {
				httpapi.ResourceNotFound(rw)
				return
			}
			if err != nil {
				httpapi.InternalServerError(rw, err)
				return
			}
			if cut.TenantID != Tenant(r).ID {
				httpapi.ResourceNotFound(rw)
				return
			}

			ctx = context.WithValue(ctx, cutParamContextKey{}, cut)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
