package cli_test

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/cli/clitest"
	"github.com/printwatch/printwatch/printd/database/dbtestutil"
	"github.com/printwatch/printwatch/printd/database/postgres"
	"github.com/printwatch/printwatch/printd/tenantkey"
	"github.com/printwatch/printwatch/testutil"
)

func TestTenants(t *testing.T) {
	t.Parallel()

	t.Run("PostgresRequired", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		err := clitest.New(t, "tenants", "list").WithContext(ctx).Run()
		require.ErrorContains(t, err, "--postgres-url is required")
	})

	t.Run("InvalidID", func(t *testing.T) {
		t.Parallel()
		ctx := testutil.Context(t, testutil.WaitShort)
		err := clitest.New(t, "tenants", "delete", "not-a-uuid").WithContext(ctx).Run()
		require.ErrorContains(t, err, "parse tenant id")
	})

	t.Run("Lifecycle", func(t *testing.T) {
		t.Parallel()
		if !dbtestutil.WillUsePostgres() {
			t.Skip("test requires postgres")
		}
		ctx := testutil.Context(t, testutil.WaitLong)
		pgURL := postgresURL(t)

		inv := clitest.New(t, "tenants", "create", "Clinica San Pablo", "--city", "Lima", "--postgres-url", pgURL)
		created := clitest.Capture(inv)
		require.NoError(t, inv.WithContext(ctx).Run())

		key := regexp.MustCompile(`(?m)^([0-9a-f-]{36}:[0-9a-f]+)$`).FindStringSubmatch(created.String())
		require.Len(t, key, 2, "output: %s", created.String())
		id, _, err := tenantkey.Parse(key[1])
		require.NoError(t, err)

		// Names are unique regardless of case.
		err = clitest.New(t, "tenants", "create", "clinica san pablo", "--postgres-url", pgURL).WithContext(ctx).Run()
		require.ErrorContains(t, err, "already exists")

		inv = clitest.New(t, "tenants", "list", "--postgres-url", pgURL)
		listed := clitest.Capture(inv)
		require.NoError(t, inv.WithContext(ctx).Run())
		require.Contains(t, listed.String(), id.String())
		require.Contains(t, listed.String(), "Clinica San Pablo")

		require.NoError(t, clitest.New(t, "tenants", "delete", id.String(), "--postgres-url", pgURL).WithContext(ctx).Run())
		err = clitest.New(t, "tenants", "delete", id.String(), "--postgres-url", pgURL).WithContext(ctx).Run()
		require.ErrorContains(t, err, "does not exist")
	})
}

func postgresURL(t *testing.T) string {
	t.Helper()
	if u := os.Getenv("PRINTWATCH_PG_CONNECTION_URL"); u != "" {
		return u
	}
	u, closePg, err := postgres.Open()
	require.NoError(t, err)
	t.Cleanup(closePg)
	return u
}
