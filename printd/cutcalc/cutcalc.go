// Package cutcalc computes the page counters of a billing cut from the
// cut that precedes it and the device's latest snapshot.
package cutcalc

import (
	"time"

	"github.com/printwatch/printwatch/printd/database"
)

// FirstCutLabel is the period label of a device's first cut.
const FirstCutLabel = "since installation"

const dateLayout = "02/01/2006"

type Result struct {
	StartCounter int64
	EndCounter   int64
	TotalPages   int64
	PeriodLabel  string
	IsFirstCut   bool
}

// Calculate returns the counters for a cut taken at now. previous is nil
// for a device that has never been cut. A missing page count reads as zero
// and a counter that went backwards yields zero pages rather than a
// negative total.
func Calculate(previous *database.Cut, latest database.LatestState, now time.Time) Result {
	var end int64
	if latest.PageCount.Valid {
		end = latest.PageCount.Int64
	}

	if previous == nil {
		return Result{
			StartCounter: 0,
			EndCounter:   end,
			TotalPages:   max(0, end),
			PeriodLabel:  FirstCutLabel,
			IsFirstCut:   true,
		}
	}

	start := previous.EndCounter
	return Result{
		StartCounter: start,
		EndCounter:   end,
		TotalPages:   max(0, end-start),
		PeriodLabel:  FormatRange(previous.CreatedAt.In(now.Location()), now),
		IsFirstCut:   false,
	}
}

// FormatRange renders "dd/mm/yyyy - dd/mm/yyyy" using each time's own
// location.
func FormatRange(from, to time.Time) string {
	return from.Format(dateLayout) + " - " + to.Format(dateLayout)
}
