package booking

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time expressed as seconds since midnight.
// Business hours are pure times of day; comparing them against a
// reservation window only ever looks at the clock portion of the
// timestamps involved.
type TimeOfDay int

// ParseTimeOfDay parses a clock string in "HH:MM" or "HH:MM:SS"
// form, the formats MySQL TIME columns scan to.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		sec = 0
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// At extracts the clock portion of a timestamp.
func At(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

// String renders the time of day as "HH:MM:SS".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

// WeekdayOf returns the weekday of a timestamp in the storage
// numbering, where 0 is Monday and 6 is Sunday.  Go's time package
// counts from Sunday, so the value is shifted.
func WeekdayOf(t time.Time) uint8 {
	return uint8((int(t.Weekday()) + 6) % 7)
}

// SameDay reports whether two timestamps fall on the same calendar
// date.  Callers are expected to keep all reservation timestamps in
// a single location (the service stores UTC).
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
