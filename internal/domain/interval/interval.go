// Package interval implements calendar-aware duration parsing and arithmetic.
//
// Durations like "6month" are not convertible to a fixed number of hours:
// adding one month to January 31 must land on the last valid day of
// February. Every date computation in the pipeline goes through this
// package so that boundary handling is in one place.
package interval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration is a calendar-aware time delta.
type Duration struct {
	Years  int
	Months int
	Weeks  int
	Days   int
	Hours  int
}

var magnitudeUnitRe = regexp.MustCompile(`^(\d+)\s*([a-z]+)$`)

// Parse converts a human-readable duration string like "6month", "3 days"
// or "1y" into a Duration. Unrecognized units and malformed magnitudes
// return ErrParse.
func Parse(s string) (Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	m := magnitudeUnitRe.FindStringSubmatch(normalized)
	if m == nil {
		return Duration{}, fmt.Errorf("%w: malformed duration %q", ErrParse, s)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Duration{}, fmt.Errorf("%w: magnitude in %q: %v", ErrParse, s, err)
	}

	switch m[2] {
	case "y", "year", "years":
		return Duration{Years: n}, nil
	case "month", "months", "mon", "mons":
		return Duration{Months: n}, nil
	case "w", "week", "weeks":
		return Duration{Weeks: n}, nil
	case "d", "day", "days":
		return Duration{Days: n}, nil
	case "h", "hour", "hours":
		return Duration{Hours: n}, nil
	default:
		return Duration{}, fmt.Errorf("%w: unknown unit %q in %q", ErrParse, m[2], s)
	}
}

// MustParse is Parse for static inputs; it panics on error.
func MustParse(s string) Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the duration has no effect on any date.
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Weeks == 0 && d.Days == 0 && d.Hours == 0
}

// AddTo advances t by the duration with calendar-correct semantics.
// Month and year arithmetic clamps to the last valid day of the target
// month, so Jan 31 + 1 month is Feb 28 (or 29 in a leap year).
func (d Duration) AddTo(t time.Time) time.Time {
	out := addMonthsClamped(t, d.Years*12+d.Months)
	out = out.AddDate(0, 0, d.Weeks*7+d.Days)
	return out.Add(time.Duration(d.Hours) * time.Hour)
}

// SubFrom moves t backward by the duration, with the same clamping rules.
func (d Duration) SubFrom(t time.Time) time.Time {
	out := addMonthsClamped(t, -(d.Years*12 + d.Months))
	out = out.AddDate(0, 0, -(d.Weeks*7 + d.Days))
	return out.Add(-time.Duration(d.Hours) * time.Hour)
}

// referenceDate anchors duration comparison. Any fixed date works; this one
// predates all modeling windows the pipeline is expected to see.
var referenceDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Compare orders durations by their effect on a fixed reference date,
// not by a naive fixed-length conversion: "1 month" and "30 days" differ.
// Returns -1, 0, or +1.
func (d Duration) Compare(other Duration) int {
	a := d.AddTo(referenceDate)
	b := other.AddTo(referenceDate)
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Less reports whether d moves the reference date less far than other.
func (d Duration) Less(other Duration) bool {
	return d.Compare(other) < 0
}

// String renders the duration in the same compact form Parse accepts.
func (d Duration) String() string {
	var parts []string
	if d.Years != 0 {
		parts = append(parts, fmt.Sprintf("%dyears", d.Years))
	}
	if d.Months != 0 {
		parts = append(parts, fmt.Sprintf("%dmonths", d.Months))
	}
	if d.Weeks != 0 {
		parts = append(parts, fmt.Sprintf("%dweeks", d.Weeks))
	}
	if d.Days != 0 {
		parts = append(parts, fmt.Sprintf("%ddays", d.Days))
	}
	if d.Hours != 0 {
		parts = append(parts, fmt.Sprintf("%dhours", d.Hours))
	}
	if len(parts) == 0 {
		return "0days"
	}
	return strings.Join(parts, " ")
}

// addMonthsClamped shifts t by months, clamping the day-of-month to the
// last valid day of the target month instead of letting it normalize
// into the following month the way time.AddDate does.
func addMonthsClamped(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, mo, day := t.Date()
	total := int(mo) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)
	if total%12 < 0 {
		year--
		month += 12
	}
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	h, minute, sec := t.Clock()
	return time.Date(year, month, day, h, minute, sec, t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
