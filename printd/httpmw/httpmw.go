// Package httpmw contains the chi middleware of the printwatch API.
package httpmw

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printsdk"
)

// parseUUID consumes a url parameter and parses it as a UUID.
func parseUUID(rw http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	rawID := chi.URLParam(r, param)
	if rawID == "" {
		httpapi.Write(r.Context(), rw, http.StatusBadRequest, printsdk.Response{
			Message: fmt.Sprintf("%q must be provided.", param),
		})
		return uuid.UUID{}, false
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		httpapi.Write(r.Context(), rw, http.StatusBadRequest, printsdk.Response{
			Message: fmt.Sprintf("Invalid %q, must be a uuid.", param),
			Detail:  err.Error(),
		})
		return uuid.UUID{}, false
	}
	return parsed, true
}
