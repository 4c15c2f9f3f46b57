// Package period resolves month names and calendar month boundaries used by
// expense summaries, limits and insights.
package period

import (
	"fmt"
	"strings"
	"time"
)

// ErrUnknownMonth is returned for month names outside the twelve-name table.
var ErrUnknownMonth = fmt.Errorf("period: unknown month name")

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// MonthFromName resolves a month name case-insensitively.
func MonthFromName(name string) (time.Month, error) {
	month, ok := monthsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMonth, name)
	}
	return month, nil
}

// MonthRange returns the first and last calendar day of a month, inclusive.
// The end bound carries the last nanosecond of the month so BETWEEN-style
// queries include everything created on the final day.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// Current returns the year and month of the server clock, in UTC.
func Current(now time.Time) (int, time.Month) {
	utc := now.UTC()
	return utc.Year(), utc.Month()
}
