package preference

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Window is a daily [Start, End) range in minutes after local midnight. When
// Start > End the window wraps past midnight; Start == End is empty.
type Window struct {
	Start int
	End   int
}

func ParseWindow(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

// ParseClock converts "HH:MM" (24h) into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	switch {
	case w.Start == w.End:
		return false
	case w.Start < w.End:
		return m >= w.Start && m < w.End
	default:
		return m >= w.Start || m < w.End
	}
}

// LocalTime converts t into the named IANA zone. Empty or unknown zones fall
// back to UTC.
func LocalTime(t time.Time, tz string) time.Time {
	if tz == "" {
		return t.UTC()
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}
