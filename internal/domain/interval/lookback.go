package interval

import (
	"fmt"
	"strings"
	"time"
)

// allSentinel is the config value meaning "no bound".
const allSentinel = "all"

// Lookback is either a bounded calendar duration or unbounded ("all").
// It is a tagged variant rather than a parseable duration so that the
// sentinel never participates in date arithmetic by accident.
type Lookback struct {
	bounded  bool
	duration Duration
}

// Bounded wraps a duration as a bounded lookback.
func Bounded(d Duration) Lookback {
	return Lookback{bounded: true, duration: d}
}

// Unbounded returns the lookback covering all history.
func Unbounded() Lookback {
	return Lookback{}
}

// ParseLookback parses either a duration string or the "all" sentinel.
func ParseLookback(s string) (Lookback, error) {
	if strings.EqualFold(strings.TrimSpace(s), allSentinel) {
		return Unbounded(), nil
	}
	d, err := Parse(s)
	if err != nil {
		return Lookback{}, err
	}
	return Bounded(d), nil
}

// IsBounded reports whether the lookback has a finite span.
func (l Lookback) IsBounded() bool { return l.bounded }

// Duration returns the bounded duration and whether one exists.
func (l Lookback) Duration() (Duration, bool) {
	return l.duration, l.bounded
}

// Start returns the earliest date covered when looking back from asOf.
// Unbounded lookbacks fall back to floor, the experiment's beginning of time.
func (l Lookback) Start(asOf, floor time.Time) time.Time {
	if !l.bounded {
		return floor
	}
	return l.duration.SubFrom(asOf)
}

// String renders the lookback for column naming; unbounded prints "all".
func (l Lookback) String() string {
	if !l.bounded {
		return allSentinel
	}
	return l.duration.String()
}

// columnToken renders the lookback without spaces for use in column names.
func (l Lookback) columnToken() string {
	return strings.ReplaceAll(l.String(), " ", "")
}

// ColumnToken is the deterministic, space-free form used in feature
// column names.
func (l Lookback) ColumnToken() string {
	return l.columnToken()
}

// MarshalText implements encoding.TextMarshaler for manifest output.
func (l Lookback) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lookback) UnmarshalText(b []byte) error {
	parsed, err := ParseLookback(string(b))
	if err != nil {
		return fmt.Errorf("lookback: %w", err)
	}
	*l = parsed
	return nil
}
