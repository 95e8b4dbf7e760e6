package domain

import (
	"fmt"
	"time"
)

// DayBounds returns [local midnight, local midnight+24h) for the calendar
// date of t in loc, as millisecond epoch values. The end bound is exclusive:
// a meal at midnight belongs to the next day, a meal one millisecond before
// midnight to the previous one.
func DayBounds(t time.Time, loc *time.Location) (startMs, endMs int64) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UnixMilli(), end.UnixMilli()
}

// MonthBounds returns [1st 00:00 local, 1st of next month 00:00 local) for
// the given calendar month, as millisecond epoch values.
func MonthBounds(month time.Month, year int, loc *time.Location) (startMs, endMs int64) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return start.UnixMilli(), end.UnixMilli()
}

// DateKey formats a millisecond epoch timestamp as a zero-padded local
// YYYY-MM-DD key. Lexicographic order of keys equals chronological order.
func DateKey(ms int64, loc *time.Location) string {
	t := time.UnixMilli(ms).In(loc)
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(month time.Month, year int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
