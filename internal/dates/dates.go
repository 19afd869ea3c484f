// Package dates provides calendar date parsing and arithmetic shared by the
// series and backtest modules.
package dates

import (
	"fmt"
	"math"
	"time"
)

// DayFormat is the wire format for calendar dates.
const DayFormat = "2006-01-02"

// ParseDay parses a strict YYYY-MM-DD calendar date.
//
// The result is anchored at midday UTC so that converting back to a calendar
// string can never shift by a day under DST or UTC-boundary rounding.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return Midday(t), nil
}

// FormatDay renders a time as a YYYY-MM-DD calendar string.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// Midday returns the same calendar day anchored at 12:00 UTC.
func Midday(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b,
// rounded to the nearest day. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
