package devicestatus_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/devicestatus"
)

func TestOnline(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	threshold := 120000 * time.Millisecond
	seen := func(ago time.Duration, online bool) *database.LatestState {
		return &database.LatestState{
			LastSeenAt: sql.NullTime{Time: now.Add(-ago), Valid: true},
			Online:     online,
		}
	}

	for _, tc := range []struct {
		Name  string
		State *database.LatestState
		Want  bool
	}{
		{Name: "NoSnapshot", State: nil},
		{Name: "NoLastSeen", State: &database.LatestState{Online: true}},
		{Name: "Fresh", State: seen(30*time.Second, true), Want: true},
		{Name: "Boundary", State: seen(120000*time.Millisecond, true), Want: true},
		{Name: "JustStale", State: seen(120001*time.Millisecond, true)},
		{Name: "FreshButNegative", State: seen(time.Second, false)},
		{Name: "FromFuture", State: seen(-time.Minute, true), Want: true},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.Want, devicestatus.Online(tc.State, now, threshold))
		})
	}
}

func TestOnlineThresholdIsInjected(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &database.LatestState{
		LastSeenAt: sql.NullTime{Time: now.Add(-5 * time.Minute), Valid: true},
		Online:     true,
	}
	require.False(t, devicestatus.Online(state, now, devicestatus.DefaultOfflineThreshold))
	require.True(t, devicestatus.Online(state, now, 10*time.Minute))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		Name string
		Raw  string
		Want time.Time
		Err  bool
	}{
		{Name: "RFC3339", Raw: "2024-03-01T10:00:00Z", Want: want},
		{Name: "Offset", Raw: "2024-03-01T05:00:00-05:00", Want: want},
		{Name: "Fractional", Raw: "2024-03-01T10:00:00.250Z", Want: want.Add(250 * time.Millisecond)},
		{Name: "EpochMillis", Raw: "1709287200000", Want: want},
		{Name: "EpochMillisDecimal", Raw: "1709287200000.0", Want: want},
		{Name: "EpochMillisExponent", Raw: "1.7092872e12", Want: want},
		{Name: "EpochMillisFraction", Raw: "1709287200250.0", Want: want.Add(250 * time.Millisecond)},
		{Name: "EpochMillisOverflow", Raw: "1e300", Err: true},
		{Name: "NaN", Raw: "NaN", Err: true},
		{Name: "Empty", Raw: "", Err: true},
		{Name: "Garbage", Raw: "yesterday", Err: true},
		{Name: "DateOnly", Raw: "2024-03-01", Err: true},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()
			got, err := devicestatus.ParseTimestamp(tc.Raw)
			if tc.Err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, tc.Want.Equal(got), "want %s got %s", tc.Want, got)
		})
	}
}
