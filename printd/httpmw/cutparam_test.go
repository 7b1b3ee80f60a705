package httpmw_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/databasefake"
	"github.com/printwatch/printwatch/printd/database/dbgen"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printsdk"
)

func TestExtractCutParam(t *testing.T) {
	t.Parallel()

	insertCut := func(t *testing.T, db database.Store, device database.Device) database.Cut {
		cut, err := db.InsertCut(context.Background(), database.InsertCutParams{
			ID:          uuid.New(),
			DeviceID:    device.ID,
			TenantID:    device.TenantID,
			EndCounter:  120,
			TotalPages:  120,
			PeriodLabel: "since installation",
			DeviceName:  device.DisplayName(),
			IsFirstCut:  true,
			Month:       3,
			Year:        2025,
			CreatedAt:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		return cut
	}

	serve := func(t *testing.T, db database.Store, key, cutID string) (int, database.Cut) {
		var got database.Cut
		rtr := chi.NewRouter()
		rtr.Use(
			httpmw.ExtractTenant(db),
			httpmw.ExtractCutParam(db),
		)
		rtr.Get("/", func(rw http.ResponseWriter, r *http.Request) {
			got = httpmw.CutParam(r)
			rw.WriteHeader(http.StatusOK)
		})

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(printsdk.APIKeyHeader, key)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("cut", cutID)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
		rw := httptest.NewRecorder()
		rtr.ServeHTTP(rw, r)
		res := rw.Result()
		defer res.Body.Close()
		return res.StatusCode, got
	}

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		_, key := dbgen.Tenant(t, db, database.Tenant{})
		code, _ := serve(t, db, key, uuid.NewString())
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("OtherTenant", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		other, _ := dbgen.Tenant(t, db, database.Tenant{})
		cut := insertCut(t, db, dbgen.Device(t, db, database.Device{TenantID: other.ID}))
		_, key := dbgen.Tenant(t, db, database.Tenant{})
		code, _ := serve(t, db, key, cut.ID.String())
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Found", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		tenant, key := dbgen.Tenant(t, db, database.Tenant{})
		cut := insertCut(t, db, dbgen.Device(t, db, database.Device{TenantID: tenant.ID}))
		code, got := serve(t, db, key, cut.ID.String())
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, cut.ID, got.ID)
		require.EqualValues(t, 120, got.TotalPages)
	})
}
