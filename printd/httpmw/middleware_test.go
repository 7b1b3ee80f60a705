package httpmw_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/databasefake"
	"github.com/printwatch/printwatch/printd/database/dbgen"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printd/tenantkey"
	"github.com/printwatch/printwatch/printsdk"
	"github.com/printwatch/printwatch/testutil"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	rtr := chi.NewRouter()
	rtr.Use(
		httpapi.StatusWriterMiddleware,
		httpmw.Recover(testutil.Logger(t)),
	)
	rtr.Get("/", func(http.ResponseWriter, *http.Request) {
		panic("oops")
	})

	rw := httptest.NewRecorder()
	rtr.ServeHTTP(rw, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestAttachRequestID(t *testing.T) {
	t.Parallel()

	rtr := chi.NewRouter()
	rtr.Use(httpmw.AttachRequestID)
	rtr.Get("/", func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(httpmw.RequestID(r).String()))
	})

	rw := httptest.NewRecorder()
	rtr.ServeHTTP(rw, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, rw.Body.String(), rw.Header().Get(httpmw.RequestIDHeader))
}

func TestLogger(t *testing.T) {
	t.Parallel()

	rtr := chi.NewRouter()
	rtr.Use(
		httpapi.StatusWriterMiddleware,
		httpmw.AttachRequestID,
		httpmw.Logger(testutil.Logger(t)),
	)
	rtr.Get("/", func(rw http.ResponseWriter, r *http.Request) {
		rlc := httpmw.RequestLoggerFromContext(r.Context())
		require.NotNil(t, rlc)
		rlc.WithFields(map[string]any{"device_id": "abc"})
		rw.WriteHeader(http.StatusNoContent)
	})

	rw := httptest.NewRecorder()
	rtr.ServeHTTP(rw, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusNoContent, rw.Code)
	require.Nil(t, httpmw.RequestLoggerFromContext(httptest.NewRequest("GET", "/", nil).Context()))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("Disabled", func(t *testing.T) {
		t.Parallel()
		rtr := chi.NewRouter()
		rtr.Use(httpmw.RateLimit(0, time.Minute))
		rtr.Get("/", func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusOK)
		})
		for range 10 {
			rw := httptest.NewRecorder()
			rtr.ServeHTTP(rw, httptest.NewRequest("GET", "/", nil))
			require.Equal(t, http.StatusOK, rw.Code)
		}
	})

	t.Run("PerTenant", func(t *testing.T) {
		t.Parallel()
		db := databasefake.New()
		_, keyA := dbgen.Tenant(t, db, database.Tenant{})
		tenantB, keyB := dbgen.Tenant(t, db, database.Tenant{})

		rtr := chi.NewRouter()
		rtr.Use(
			httpmw.ExtractTenant(db),
			httpmw.RateLimit(2, time.Minute),
		)
		rtr.Get("/", func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusOK)
		})
		do := func(key string) int {
			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set(printsdk.APIKeyHeader, key)
			rw := httptest.NewRecorder()
			rtr.ServeHTTP(rw, r)
			return rw.Code
		}

		// Wrong secrets for a known tenant id are rejected before they
		// reach the limiter.
		forged := tenantkey.Format(tenantB.ID, "wrong")
		for range 5 {
			require.Equal(t, http.StatusForbidden, do(forged))
		}
		require.Equal(t, http.StatusOK, do(keyB))
		require.Equal(t, http.StatusOK, do(keyB))
		require.Equal(t, http.StatusTooManyRequests, do(keyB))
		// Other tenants have their own budget.
		require.Equal(t, http.StatusOK, do(keyA))
	})

	t.Run("ByIPWithoutTenant", func(t *testing.T) {
		t.Parallel()
		rtr := chi.NewRouter()
		rtr.Use(httpmw.RateLimit(1, time.Minute))
		rtr.Get("/", func(rw http.ResponseWriter, _ *http.Request) {
			rw.WriteHeader(http.StatusOK)
		})
		do := func(remoteAddr, key string) int {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = remoteAddr
			r.Header.Set(printsdk.APIKeyHeader, key)
			rw := httptest.NewRecorder()
			rtr.ServeHTTP(rw, r)
			return rw.Code
		}
		require.Equal(t, http.StatusOK, do("10.0.0.1:1234", "a:1"))
		// An unverified key does not buy a separate budget.
		require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1234", "b:1"))
		require.Equal(t, http.StatusOK, do("10.0.0.2:1234", "a:1"))
	})
}

func TestPrometheus(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rtr := chi.NewRouter()
	rtr.Use(
		httpapi.StatusWriterMiddleware,
		httpmw.Prometheus(reg),
	)
	rtr.Get("/devices/{device}", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"one", "two"} {
		rw := httptest.NewRecorder()
		rtr.ServeHTTP(rw, httptest.NewRequest("GET", "/devices/"+id, nil))
		require.Equal(t, http.StatusOK, rw.Code)
	}

	require.EqualValues(t, 2, testutil.PromCounterValue(t, reg, "printwatch_api_requests_processed_total",
		"200", "GET", "/devices/{device}"))
	require.EqualValues(t, 2, testutil.PromHistogramCount(t, reg, "printwatch_api_request_latencies_seconds",
		"GET", "/devices/{device}"))
}
