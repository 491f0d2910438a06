// Package dates computes calendar boundaries for the aggregation layer:
// start/end of day, month, and year, plus the month-grid arithmetic the
// calendar view needs. All boundaries are inclusive; an end boundary is the
// last representable instant of its period at millisecond precision, matching
// how occurrence dates are stored.
package dates

import "time"

// MonthKeyLayout is the year+month grouping key format, e.g. "2024-01".
const MonthKeyLayout = "2006-01"

// StartOfDay returns t truncated to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last millisecond of t's month. Month lengths and
// leap years come out of time.Date normalization, not a lookup table.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 23, 59, 59, 999_000_000, t.Location())
}

// StartOfYear returns midnight on January 1 of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// EndOfYear returns the last millisecond of December 31 of t's year.
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 23, 59, 59, 999_000_000, t.Location())
}

// MonthKey formats t's year and month as a sortable grouping key.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// Within reports whether t falls inside [start, end], both bounds inclusive.
func Within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// MonthGrid describes the calendar-cell layout of one month.
type MonthGrid struct {
	Year         int
	Month        time.Month
	Days         int // total day count of the month
	FirstWeekday int // weekday index of day 1, 0=Sunday
}

// GridFor computes the grid layout for the given year and month.
func GridFor(year int, month time.Month) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return MonthGrid{
		Year:         first.Year(),
		Month:        first.Month(),
		Days:         last.Day(),
		FirstWeekday: int(first.Weekday()),
	}
}
