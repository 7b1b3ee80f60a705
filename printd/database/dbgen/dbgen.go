// Package dbgen inserts fixtures for tests.
package dbgen

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/cryptorand"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbtime"
	"github.com/printwatch/printwatch/printd/tenantkey"
)

// All methods take in a 'seed' object. Any provided fields in the seed will be
// maintained. Any fields omitted will have sensible defaults generated.

// Tenant inserts a tenant and returns it with its plaintext API key. The
// seed's HashedSecret is ignored.
func Tenant(t testing.TB, db database.Store, seed database.Tenant) (database.Tenant, string) {
	t.Helper()

	params, key, err := tenantkey.New(
		takeFirst(seed.Name, "tenant-"+must(cryptorand.String(8))),
		takeFirst(seed.City, "Lima"),
		takeFirst(seed.CreatedAt, dbtime.Time(time.Now())),
	)
	require.NoError(t, err, "generate tenant key")
	if seed.ID != uuid.Nil {
		_, secret, err := tenantkey.Parse(key)
		require.NoError(t, err)
		params.ID = seed.ID
		key = tenantkey.Format(seed.ID, secret)
	}

	tenant, err := db.InsertTenant(context.Background(), params)
	require.NoError(t, err, "insert tenant")
	return tenant, key
}

func Device(t testing.TB, db database.Store, seed database.Device) database.Device {
	t.Helper()

	device, err := db.InsertDevice(context.Background(), database.InsertDeviceParams{
		ID:          takeFirst(seed.ID, uuid.New()),
		TenantID:    takeFirst(seed.TenantID, uuid.New()),
		Host:        takeFirst(seed.Host, "printer-"+must(cryptorand.String(10))),
		Serial:      seed.Serial,
		Name:        seed.Name,
		Model:       takeFirst(seed.Model, "LaserJet M404"),
		Description: seed.Description,
		City:        takeFirst(seed.City, "Lima"),
		CreatedAt:   takeFirst(seed.CreatedAt, dbtime.Time(time.Now())),
	})
	require.NoError(t, err, "insert device")
	return device
}

func LatestState(t testing.TB, db database.Store, seed database.LatestState) database.LatestState {
	t.Helper()

	state, err := db.UpsertLatestState(context.Background(), database.UpsertLatestStateParams{
		DeviceID:       seed.DeviceID,
		PageCount:      seed.PageCount,
		PageCountMono:  seed.PageCountMono,
		PageCountColor: seed.PageCountColor,
		Supplies:       seed.Supplies,
		LastSeenAt: sql.NullTime{
			Time:  takeFirst(seed.LastSeenAt.Time, dbtime.Time(time.Now())),
			Valid: true,
		},
		Online:       seed.Online,
		LowToner:     seed.LowToner,
		AgentVersion: takeFirst(seed.AgentVersion, "1.0.0"),
		UpdatedAt:    takeFirst(seed.UpdatedAt, dbtime.Time(time.Now())),
	})
	require.NoError(t, err, "upsert latest state")
	return state
}

func must[V any](v V, err error) V {
	if err != nil {
		panic(err)
	}
	return v
}

// takeFirst will take the first non-empty value.
func takeFirst[Value comparable](values ...Value) Value {
	var empty Value
	for _, v := range values {
		if v != empty {
			return v
		}
	}
	return empty
}
