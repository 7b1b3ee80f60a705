// Package devicestatus derives whether a printer is online from its latest
// snapshot. The result is never stored; callers recompute it on every read.
package devicestatus

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/printd/database"
)

// DefaultOfflineThreshold is how old a last-seen time may be before the
// device is reported offline.
const DefaultOfflineThreshold = 2 * time.Minute

// Online reports whether the device behind state should be shown as online
// at now. An explicit negative from the agent wins over a fresh timestamp.
// The age boundary is inclusive.
func Online(state *database.LatestState, now time.Time, threshold time.Duration) bool {
	if state == nil || !state.LastSeenAt.Valid {
		return false
	}
	if !state.Online {
		return false
	}
	return now.Sub(state.LastSeenAt.Time) <= threshold
}

// maxEpochMillis is the last millisecond a time.Duration since the epoch can
// hold, around the year 2262.
const maxEpochMillis = math.MaxInt64 / float64(time.Millisecond)

// ParseTimestamp reads an agent timestamp. RFC 3339 with or without
// fractional seconds is accepted, as are Unix epoch milliseconds in any
// JSON number form ("1709287200000", "1709287200000.0", "1.7092872e12").
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, xerrors.New("empty timestamp")
	}
	if isDigits(raw) {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, xerrors.Errorf("parse epoch millis: %w", err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t, nil
	}
	ms, ferr := strconv.ParseFloat(raw, 64)
	if ferr != nil {
		return time.Time{}, xerrors.Errorf("parse timestamp %q: %w", raw, err)
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) >= maxEpochMillis {
		return time.Time{}, xerrors.Errorf("epoch millis %q out of range", raw)
	}
	whole, frac := math.Modf(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(math.Round(frac * float64(time.Millisecond)))).UTC(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
