package util

import (
	"strings"
	"time"
)

// Upstream reports arrival dates in day/month/year textual form.
const arrivalLayout = "02/01/2006"

// ParseArrivalDate parses an upstream arrival date into a UTC calendar day.
// Malformed dates fall back to today so one bad row never sinks its batch.
func ParseArrivalDate(s string, now time.Time) time.Time {
	t, err := time.ParseInLocation(arrivalLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return StartOfDayUTC(now)
	}
	return StartOfDayUTC(t)
}

// StartOfDayUTC truncates t to the start of its UTC calendar day.
// All date arithmetic in the engine is pinned to UTC days.
func StartOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
