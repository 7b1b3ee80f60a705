package printd_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/cutcalc"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbgen"
	"github.com/printwatch/printwatch/printd/printdtest"
	"github.com/printwatch/printwatch/printsdk"
	"github.com/printwatch/printwatch/testutil"
)

func TestCuts(t *testing.T) {
	t.Parallel()

	t.Run("Lifecycle", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		lima := time.FixedZone("PET", -5*60*60)
		start := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
		clock := newMockClock(t, start)
		client, db := printdtest.NewWithDatabase(t, &printdtest.Options{
			Clock:    clock,
			Location: lima,
		})
		tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

		report := func(pages float64, level float64) uuid.UUID {
			resp, err := tenantClient.PostTelemetry(ctx, printsdk.TelemetryReport{
				Host:      "10.0.0.7",
				Serial:    "SN-7",
				PageCount: printsdk.NewNumber(pages),
				Supplies: []printsdk.SupplyReport{
					{Name: "Black", Level: printsdk.NewNumber(level), Max: printsdk.NewNumber(100)},
				},
			})
			require.NoError(t, err)
			return resp.Device.ID
		}

		deviceID := report(1500, 80)
		first, err := tenantClient.RegisterCut(ctx, deviceID)
		require.NoError(t, err)
		require.True(t, first.IsFirstCut)
		require.Nil(t, first.PreviousCutID)
		require.EqualValues(t, 0, first.StartCounter)
		require.EqualValues(t, 1500, first.EndCounter)
		require.EqualValues(t, 1500, first.TotalPages)
		require.Equal(t, cutcalc.FirstCutLabel, first.PeriodLabel)
		require.Empty(t, first.SuppliesStart)
		// 03:00 UTC on March 1st is still February in Lima.
		require.Equal(t, 2, first.Month)
		require.Equal(t, 2024, first.Year)

		clock.Set(start.Add(31 * 24 * time.Hour))
		report(1800, 40)
		second, err := tenantClient.RegisterCut(ctx, deviceID)
		require.NoError(t, err)
		require.False(t, second.IsFirstCut)
		require.NotNil(t, second.PreviousCutID)
		require.Equal(t, first.ID, *second.PreviousCutID)
		require.EqualValues(t, 1500, second.StartCounter)
		require.EqualValues(t, 1800, second.EndCounter)
		require.EqualValues(t, 300, second.TotalPages)
		require.Equal(t, "29/02/2024 - 31/03/2024", second.PeriodLabel)
		require.Equal(t, first.SuppliesEnd, second.SuppliesStart)

		clock.Set(start.Add(62 * 24 * time.Hour))
		report(200, 30)
		third, err := tenantClient.RegisterCut(ctx, deviceID)
		require.NoError(t, err)
		require.EqualValues(t, 1800, third.StartCounter)
		require.EqualValues(t, 200, third.EndCounter)
		require.EqualValues(t, 0, third.TotalPages, "a counter reset is clamped")

		history, err := tenantClient.DeviceCuts(ctx, deviceID, 0)
		require.NoError(t, err)
		require.Len(t, history, 3)
		require.Equal(t, third.ID, history[0].ID)
		require.Equal(t, second.ID, history[1].ID)
		require.Equal(t, first.ID, history[2].ID)

		limited, err := tenantClient.DeviceCuts(ctx, deviceID, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		require.Equal(t, third.ID, limited[0].ID)

		got, err := tenantClient.Cut(ctx, second.ID)
		require.NoError(t, err)
		require.Equal(t, second, got)
	})

	t.Run("MissingPageCountIsZero", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client, db := printdtest.NewWithDatabase(t, nil)
		tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

		resp, err := tenantClient.PostTelemetry(ctx, printsdk.TelemetryReport{Host: "10.0.0.7", Model: "M404"})
		require.NoError(t, err)
		cut, err := tenantClient.RegisterCut(ctx, resp.Device.ID)
		require.NoError(t, err)
		require.EqualValues(t, 0, cut.EndCounter)
		require.EqualValues(t, 0, cut.TotalPages)
	})

	t.Run("NoLatestState", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client, db := printdtest.NewWithDatabase(t, nil)
		tenantClient, tenant := printdtest.CreateTenant(t, client, db, database.Tenant{})
		device := insertDevice(t, db, tenant)

		_, err := tenantClient.RegisterCut(ctx, device.ID)
		requireStatus(t, err, http.StatusNotFound)

		history, err := tenantClient.DeviceCuts(ctx, device.ID, 0)
		require.NoError(t, err)
		require.Empty(t, history)
	})

	t.Run("UnknownDevice", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client, db := printdtest.NewWithDatabase(t, nil)
		tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

		_, err := tenantClient.RegisterCut(ctx, uuid.New())
		requireStatus(t, err, http.StatusNotFound)
		_, err = tenantClient.Cut(ctx, uuid.New())
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client, db := printdtest.NewWithDatabase(t, nil)
		tenantClient, tenant := printdtest.CreateTenant(t, client, db, database.Tenant{})
		device := insertDevice(t, db, tenant)

		res, err := tenantClient.Request(ctx, http.MethodGet, "/api/v1/devices/"+device.ID.String()+"/cuts?limit=-3", nil)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("OtherTenant", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		client, db := printdtest.NewWithDatabase(t, nil)
		owner, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})
		intruder, _ := printdtest.CreateTenant(t, client, db, database.Tenant{})

		resp, err := owner.PostTelemetry(ctx, printsdk.TelemetryReport{Host: "10.0.0.7", PageCount: printsdk.NewNumber(10)})
		require.NoError(t, err)
		cut, err := owner.RegisterCut(ctx, resp.Device.ID)
		require.NoError(t, err)

		_, err = intruder.RegisterCut(ctx, resp.Device.ID)
		requireStatus(t, err, http.StatusNotFound)
		_, err = intruder.Cut(ctx, cut.ID)
		requireStatus(t, err, http.StatusNotFound)
		_, err = intruder.CutReport(ctx, cut.ID)
		requireStatus(t, err, http.StatusNotFound)

		history, err := owner.DeviceCuts(ctx, resp.Device.ID, 0)
		require.NoError(t, err)
		require.Len(t, history, 1, "the intruder did not append a cut")
	})
}

func TestCutReport(t *testing.T) {
	t.Parallel()
	ctx := testutil.Context(t, testutil.WaitShort)

	client, db := printdtest.NewWithDatabase(t, nil)
	tenantClient, _ := printdtest.CreateTenant(t, client, db, database.Tenant{Name: "Clinica San Pablo"})

	resp, err := tenantClient.PostTelemetry(ctx, printsdk.TelemetryReport{
		Host:      "10.0.0.7",
		Name:      "Admisión",
		PageCount: printsdk.NewNumber(12345),
		Supplies: []printsdk.SupplyReport{
			{Name: "Black", Level: printsdk.NewNumber(15), Max: printsdk.NewNumber(100)},
		},
	})
	require.NoError(t, err)
	cut, err := tenantClient.RegisterCut(ctx, resp.Device.ID)
	require.NoError(t, err)

	res, err := tenantClient.Request(ctx, http.MethodGet, "/api/v1/cuts/"+cut.ID.String()+"/report", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	require.Contains(t, res.Header.Get("Content-Disposition"), "cut-Admisi-n-")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, []byte("%PDF-")))

	rc, err := tenantClient.CutReport(ctx, cut.ID)
	require.NoError(t, err)
	defer rc.Close()
	again, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(again, []byte("%PDF-")))
}

func insertDevice(t *testing.T, db database.Store, tenant database.Tenant) database.Device {
	t.Helper()
	return dbgen.Device(t, db, database.Device{TenantID: tenant.ID})
}
