package cutcalc_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/cutcalc"
	"github.com/printwatch/printwatch/printd/database"
)

func state(pageCount int64) database.LatestState {
	return database.LatestState{PageCount: sql.NullInt64{Int64: pageCount, Valid: true}}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)
	previous := &database.Cut{
		EndCounter: 1500,
		CreatedAt:  time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC),
	}

	t.Run("FirstCut", func(t *testing.T) {
		t.Parallel()
		got := cutcalc.Calculate(nil, state(1500), now)
		require.Equal(t, cutcalc.Result{
			StartCounter: 0,
			EndCounter:   1500,
			TotalPages:   1500,
			PeriodLabel:  "since installation",
			IsFirstCut:   true,
		}, got)
	})

	t.Run("SecondCut", func(t *testing.T) {
		t.Parallel()
		got := cutcalc.Calculate(previous, state(1800), now)
		require.Equal(t, cutcalc.Result{
			StartCounter: 1500,
			EndCounter:   1800,
			TotalPages:   300,
			PeriodLabel:  "29/02/2024 - 31/03/2024",
		}, got)
	})

	t.Run("CounterReset", func(t *testing.T) {
		t.Parallel()
		got := cutcalc.Calculate(previous, state(200), now)
		require.Equal(t, int64(1500), got.StartCounter)
		require.Equal(t, int64(200), got.EndCounter)
		require.Equal(t, int64(0), got.TotalPages)
	})

	t.Run("MissingPageCount", func(t *testing.T) {
		t.Parallel()
		got := cutcalc.Calculate(nil, database.LatestState{}, now)
		require.Equal(t, int64(0), got.EndCounter)
		require.Equal(t, int64(0), got.TotalPages)
		require.True(t, got.IsFirstCut)

		got = cutcalc.Calculate(previous, database.LatestState{}, now)
		require.Equal(t, int64(0), got.EndCounter)
		require.Equal(t, int64(0), got.TotalPages)
	})

	t.Run("Unchanged", func(t *testing.T) {
		t.Parallel()
		got := cutcalc.Calculate(previous, state(1500), now)
		require.Equal(t, int64(0), got.TotalPages)
	})

	t.Run("Deterministic", func(t *testing.T) {
		t.Parallel()
		require.Equal(t,
			cutcalc.Calculate(previous, state(1800), now),
			cutcalc.Calculate(previous, state(1800), now),
		)
	})
}

func TestFormatRange(t *testing.T) {
	t.Parallel()

	lima := time.FixedZone("PET", -5*60*60)

	from := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "02/01/2024 - 15/01/2024", cutcalc.FormatRange(from, to))
	// 03:00 UTC is still the previous evening in Lima.
	require.Equal(t, "01/01/2024 - 15/01/2024", cutcalc.FormatRange(from.In(lima), to.In(lima)))
}
