// Package dateutil provides date-only helpers for lesson scheduling.
// Lessons are identified by calendar date (one active lesson per day), so most
// of the tracker's temporal logic works on truncated UTC dates and calendar
// months rather than instants.
// No external dependencies - uses only standard library.
package dateutil

import (
	"fmt"
	"time"
)

// EpochFloor is the earliest date the program keeps attendance history for.
// Streak recomputation never scans lessons before this date.
var EpochFloor = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateOnly truncates a time to its UTC calendar date (00:00:00 UTC).
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Date creates a UTC date from year/month/day.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two times fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// MonthBounds returns the first and last day of the given month (inclusive).
func MonthBounds(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// YearMonth identifies a calendar month ("2024-01").
type YearMonth struct {
	Year  int
	Month int
}

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: expected YYYY-MM", s)
	}
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

// YearMonthOf returns the calendar month containing t (in UTC).
func YearMonthOf(t time.Time) YearMonth {
	u := t.UTC()
	return YearMonth{Year: u.Year(), Month: int(u.Month())}
}

// Bounds returns the first and last day of the month (inclusive).
func (ym YearMonth) Bounds() (start, end time.Time) {
	return MonthBounds(ym.Year, ym.Month)
}

// Contains reports whether t falls inside this calendar month.
func (ym YearMonth) Contains(t time.Time) bool {
	u := t.UTC()
	return u.Year() == ym.Year && int(u.Month()) == ym.Month
}

// String formats the month as "YYYY-MM".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// IsZero reports whether the YearMonth is unset.
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// DaysAgo returns the instant exactly n days before now, in UTC.
// Retention cutoffs for the purge sweep are computed with this.
func DaysAgo(now time.Time, n int) time.Time {
	return now.UTC().AddDate(0, 0, -n)
}

// FormatDate formats a time as a date-only string (2006-01-02).
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDate parses a date-only string (2006-01-02) into a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}
