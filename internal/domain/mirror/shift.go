package mirror

import (
	"fmt"
	"time"
)

// WorkShift is one working window of a barber on a weekday. A barber may have
// several windows per day (split morning/afternoon shifts). Times are stored
// as minutes of day so windows compare independently of the calendar date.
type WorkShift struct {
	BarberID    string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// Contains reports whether the candidate interval [start, end) lies entirely
// inside this window. Both instants must fall on the shift's weekday.
func (w WorkShift) Contains(start, end time.Time) bool {
	if start.Weekday() != w.Weekday {
		return false
	}
	s := MinuteOfDay(start)
	e := MinuteOfDay(end)
	if e == 0 && end.After(start) {
		e = 24 * 60 // interval ending exactly at midnight
	}
	return s >= w.StartMinute && e <= w.EndMinute
}

// MinuteOfDay returns the minute offset of t within its day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseClock converts an "HH:MM" string to a minute-of-day offset.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders a minute-of-day offset as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
