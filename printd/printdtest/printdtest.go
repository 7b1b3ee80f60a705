// Package printdtest runs the printwatch API in-process for tests.
package printdtest

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbgen"
	"github.com/printwatch/printwatch/printd/database/dbtestutil"
	"github.com/printwatch/printwatch/printsdk"
	"github.com/printwatch/printwatch/testutil"
)

type Options struct {
	Database database.Store
	Clock    quartz.Clock

	OfflineThreshold time.Duration
	Location         *time.Location
	// APIRateLimit defaults to disabled.
	APIRateLimit       int
	PrometheusRegistry *prometheus.Registry
}

// New returns a client without an API key for an API served over httptest.
func New(t testing.TB, options *Options) *printsdk.Client {
	client, _ := NewWithDatabase(t, options)
	return client
}

// NewWithDatabase is like New but also returns the store backing the API,
// so tests can seed tenants with CreateTenant.
func NewWithDatabase(t testing.TB, options *Options) (*printsdk.Client, database.Store) {
	t.Helper()
	if options == nil {
		options = &Options{}
	}
	if options.Database == nil {
		options.Database = dbtestutil.NewDB(t)
	}
	if options.APIRateLimit == 0 {
		options.APIRateLimit = -1
	}

	var registry prometheus.Registerer
	if options.PrometheusRegistry != nil {
		registry = options.PrometheusRegistry
	}
	api, err := printd.New(&printd.Options{
		Logger:             testutil.Logger(t).Named("printd"),
		Database:           options.Database,
		Clock:              options.Clock,
		OfflineThreshold:   options.OfflineThreshold,
		Location:           options.Location,
		APIRateLimit:       options.APIRateLimit,
		PrometheusRegistry: registry,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.RootHandler)
	t.Cleanup(srv.Close)

	serverURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return printsdk.New(serverURL), options.Database
}

// CreateTenant inserts a tenant and returns a copy of client authenticated
// as it.
func CreateTenant(t testing.TB, client *printsdk.Client, db database.Store, seed database.Tenant) (*printsdk.Client, database.Tenant) {
	t.Helper()
	tenant, key := dbgen.Tenant(t, db, seed)
	other := printsdk.New(client.URL)
	other.SetAPIKey(key)
	return other, tenant
}
