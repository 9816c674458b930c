package leave

import "time"

// =============================================================================
// DATE MATH - Inclusive day counts and date normalization
// =============================================================================
//
// All leave arithmetic is calendar-day based. Dates are normalized to
// midnight UTC so map keys and equality checks behave.

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates a timestamp to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a normalized date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// InclusiveDays returns the day count of the closed range [start, end].
//
// A zero result is the authoritative invalid-range signal: it is returned
// when either date is the zero value or start is after end, and the workflow
// treats it as ErrInvalidDateRange rather than a legitimate zero-day request.
func InclusiveDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	s, e := DateOnly(start), DateOnly(end)
	if s.After(e) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return DateOnly(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)).YearDay()
}

// StartOfYear returns January 1st of the year at midnight UTC.
func StartOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekdayIndex maps time.Weekday to the 0=Monday ... 6=Sunday convention
// used by the recommendation feature table and policy rules.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
