package models

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is the minute-precision editable form used by
// date-time inputs.
const LocalDateTimeLayout = "2006-01-02T15:04"

// FormatLocalDateTime renders t in loc for editing. The zero time
// renders as an empty string.
func FormatLocalDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(LocalDateTimeLayout)
}

// ParseLocalDateTime is the inverse of FormatLocalDateTime. Seconds are
// accepted but optional. The result is normalized to UTC.
func ParseLocalDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date-time")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{LocalDateTimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q, expected YYYY-MM-DDTHH:MM", s)
}

// FormatDuration renders minutes as "2h 05m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
