package dateutil

import (
	"fmt"
	"time"
)

// CivilDate returns the calendar date of t, as read in t's own location,
// expressed as midnight UTC. Two instants on the same local date map to the
// same CivilDate regardless of their zones.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from the local date
// of from to the local date of to. Daylight saving transitions do not affect
// the result.
func DaysBetween(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)) / (24 * time.Hour))
}

// IsSameMonth returns true if two dates fall in the same civil month
func IsSameMonth(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() && date1.Month() == date2.Month()
}

// FormatISO8601 formats date to ISO 8601 format with timezone
// Example: 2025-01-15T10:00:00.000+0000
func FormatISO8601(date time.Time) string {
	return date.Format("2006-01-02T15:04:05.000-0700")
}

// ParseDate parses date string in various formats
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02.01.2006",
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}

// ParseDateIn parses date string like ParseDate, interpreting values without
// an explicit offset in loc.
func ParseDateIn(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	if t.Location() == time.UTC && !hasExplicitZone(dateStr) {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
	}
	return t.In(loc), nil
}

func hasExplicitZone(dateStr string) bool {
	if len(dateStr) <= len("2006-01-02T15:04") {
		return false
	}
	tail := dateStr[len("2006-01-02T15:04"):]
	for _, r := range tail {
		if r == 'Z' || r == '+' || r == '-' {
			return true
		}
	}
	return false
}

// Ordinal renders n with its English ordinal suffix: 1st, 2nd, 3rd, 4th, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
