package printd_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/printwatch/printwatch/buildinfo"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/printdtest"
	"github.com/printwatch/printwatch/printd/tenantkey"
	"github.com/printwatch/printwatch/printsdk"
	"github.com/printwatch/printwatch/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuildInfo(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client := printdtest.New(t, nil)
	info, err := client.BuildInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, buildinfo.Version(), info.Version)
	require.Equal(t, buildinfo.ExternalURL(), info.ExternalURL)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client := printdtest.New(t, nil)
	res, err := client.Request(ctx, http.MethodGet, "/healthz", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "OK", string(body))
}

func TestRouteNotFound(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client := printdtest.New(t, nil)
	res, err := client.Request(ctx, http.MethodGet, "/nope", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	t.Run("MissingKey", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client := printdtest.New(t, nil)
		_, err := client.Devices(ctx, printsdk.DevicesFilter{})
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client := printdtest.New(t, nil)
		client.SetAPIKey("00000000-0000-0000-0000-000000000000:nope")
		_, err := client.PostTelemetry(ctx, printsdk.TelemetryReport{Host: "10.0.0.1"})
		requireStatus(t, err, http.StatusForbidden)
	})
}

func TestAPIMetrics(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	registry := prometheus.NewRegistry()
	client, db := printdtest.NewWithDatabase(t, &printdtest.Options{PrometheusRegistry: registry})
	tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

	_, err := tenantClient.PostTelemetry(ctx, printsdk.TelemetryReport{Host: "10.0.0.9", PageCount: printsdk.NewNumber(10)})
	require.NoError(t, err)

	require.EqualValues(t, 1, testutil.PromCounterValue(t, registry, "printwatch_telemetry_ingested_total", "success"))
	require.EqualValues(t, 1, testutil.PromCounterValue(t, registry, "printwatch_devices_created_total"))
	require.EqualValues(t, 1, testutil.PromCounterValue(t, registry, "printwatch_api_requests_processed_total",
		"200", "POST", "/api/v1/telemetry"))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client, db := printdtest.NewWithDatabase(t, &printdtest.Options{APIRateLimit: 2})
	tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

	for range 2 {
		_, err := tenantClient.Devices(ctx, printsdk.DevicesFilter{})
		require.NoError(t, err)
	}
	_, err := tenantClient.Devices(ctx, printsdk.DevicesFilter{})
	requireStatus(t, err, http.StatusTooManyRequests)
}

func TestRateLimitIgnoresForgedKeys(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client, db := printdtest.NewWithDatabase(t, &printdtest.Options{APIRateLimit: 2})
	tenantClient, tenant := printdtest.CreateTenant(t, client, db, database.Tenant{})

	forged := printsdk.New(client.URL)
	forged.SetAPIKey(tenantkey.Format(tenant.ID, "guessed"))
	for range 5 {
		_, err := forged.Devices(ctx, printsdk.DevicesFilter{})
		requireStatus(t, err, http.StatusForbidden)
	}

	for range 2 {
		_, err := tenantClient.Devices(ctx, printsdk.DevicesFilter{})
		require.NoError(t, err)
	}
}

func newMockClock(t *testing.T, now time.Time) *quartz.Mock {
	clock := quartz.NewMock(t)
	clock.Set(now)
	return clock
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var sdkErr *printsdk.Error
	require.ErrorAs(t, err, &sdkErr)
	require.Equal(t, status, sdkErr.StatusCode())
}
