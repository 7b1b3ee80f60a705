package httpmw_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/databasefake"
	"github.com/printwatch/printwatch/printd/database/dbgen"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printsdk"
)

func TestExtractDeviceParam(t *testing.T) {
	t.Parallel()

	request := func(key, deviceID string) *http.Request {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(printsdk.APIKeyHeader, key)
		routeCtx := chi.NewRouteContext()
		if deviceID != "" {
			routeCtx.URLParams.Add("device", deviceID)
		}
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
	}
	setup := func(t *testing.T, db database.Store, deviceID string) *http.Request {
		_, key := dbgen.Tenant(t, db, database.Tenant{})
		return request(key, deviceID)
	}

	serve := func(t *testing.T, db database.Store, r *http.Request) int {
		rtr := chi.NewRouter()
		rtr.Use(
			httpmw.ExtractTenant(db),
			httpmw.ExtractDeviceParam(db),
		)
		rtr.Get("/", func(rw http.ResponseWriter, r *http.Request) {
			_ = httpmw.DeviceParam(r)
			rw.WriteHeader(http.StatusOK)
		})
		rw := httptest.NewRecorder()
		rtr.ServeHTTP(rw, r)
		res := rw.Result()
		defer res.Body.Close()
		return res.StatusCode
	}

	t.Run("None", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		r := setup(t, db, "")
		require.Equal(t, http.StatusBadRequest, serve(t, db, r))
	})

	t.Run("BadUUID", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		r := setup(t, db, "printer-1")
		require.Equal(t, http.StatusBadRequest, serve(t, db, r))
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		r := setup(t, db, uuid.NewString())
		require.Equal(t, http.StatusNotFound, serve(t, db, r))
	})

	t.Run("OtherTenant", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		other, _ := dbgen.Tenant(t, db, database.Tenant{})
		device := dbgen.Device(t, db, database.Device{TenantID: other.ID})
		r := setup(t, db, device.ID.String())
		require.Equal(t, http.StatusNotFound, serve(t, db, r))
	})

	t.Run("Found", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		tenant, key := dbgen.Tenant(t, db, database.Tenant{})
		device := dbgen.Device(t, db, database.Device{TenantID: tenant.ID})

		r := request(key, device.ID.String())
		require.Equal(t, http.StatusOK, serve(t, db, r))
	})
}
