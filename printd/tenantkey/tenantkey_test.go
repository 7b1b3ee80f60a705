package tenantkey_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/tenantkey"
)

func TestNew(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	params, key, err := tenantkey.New("Acme", "Lima", now)
	require.NoError(t, err)
	require.Equal(t, "Acme", params.Name)
	require.Equal(t, "Lima", params.City)
	require.Equal(t, now, params.CreatedAt)

	id, secret, err := tenantkey.Parse(key)
	require.NoError(t, err)
	require.Equal(t, params.ID, id)
	require.Len(t, secret, 48)
	require.Equal(t, tenantkey.HashSecret(secret), params.HashedSecret)

	tenant := database.Tenant{ID: params.ID, HashedSecret: params.HashedSecret}
	require.True(t, tenantkey.Matches(tenant, secret))
	require.False(t, tenantkey.Matches(tenant, secret+"x"))
}

func TestParse(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	for _, tc := range []struct {
		Name string
		Key  string
		OK   bool
	}{
		{Name: "Valid", Key: id.String() + ":abc", OK: true},
		{Name: "NoSeparator", Key: id.String()},
		{Name: "EmptySecret", Key: id.String() + ":"},
		{Name: "BadID", Key: "tenant:abc"},
		{Name: "Empty", Key: ""},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			gotID, secret, err := tenantkey.Parse(tc.Key)
			if !tc.OK {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, id, gotID)
			require.Equal(t, "abc", secret)
		})
	}
}
