// Package dbtime normalizes timestamps before they reach the database.
package dbtime

import (
	"time"

	"github.com/coder/quartz"
)

// Now returns the clock's current time in UTC, truncated the way Postgres
// will store it.
func Now(clock quartz.Clock) time.Time {
	return Time(clock.Now())
}

// Time converts t to UTC at microsecond precision so values read back from
// Postgres compare equal to the ones written.
func Time(t time.Time) time.Time {
	return t.UTC().Round(time.Microsecond)
}
