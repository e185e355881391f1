package calendar

import (
	"time"

	"github.com/username/aviv-calendar/internal/ledger"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

const (
	// phase window, in days of moon age, inside which a resolved month is trusted
	confidentPhaseMin = 2.0
	confidentPhaseMax = 27.0
)

// dayIndex is the biblical day of a month starting at epoch: civil days
// elapsed plus one once the sun has set
func dayIndex(epoch time.Time, at time.Time, sunHasSet bool) int {
	d := dateutil.DaysBetween(epoch, at)
	if sunHasSet {
		d++
	}
	return d
}

// DeriveDay returns the day of month and weekday of at, read in its own
// location. The day is never clamped: anything outside the month is an error.
func DeriveDay(m ResolvedMonth, at time.Time, sunHasSet bool) (int, Weekday, error) {
	day := dayIndex(m.Epoch, at, sunHasSet)
	if day < 1 || day > ledger.MaxMonthLength || (m.Length > 0 && day > m.Length) {
		return 0, 0, &DayOverflowError{Month: m, Day: day}
	}
	return day, WeekdayFromCivil(at.Weekday(), sunHasSet), nil
}

// Revalidate checks a resolved month against the moon. When the phase is
// outside the confident window and the following month has already begun at
// the query, the following month is returned with changed set.
//
// Resolve already prefers the latest begun month, so after it this only
// takes effect when the phase tie-break stepped back to an earlier month
// that is still open. With a consistent ledger that needs a month shorter
// than 29 days followed by one starting in the same civil month.
func Revalidate(l *ledger.Ledger, m ResolvedMonth, q Query) (resolved ResolvedMonth, changed bool) {
	if q.Phase > confidentPhaseMin && q.Phase <= confidentPhaseMax {
		return m, false
	}
	next, ok := l.Get(l.Next(m.Key))
	if !ok {
		return m, false
	}
	if dayIndex(next.Epoch, q.Instant, q.SunHasSet) < 1 {
		return m, false
	}
	return newResolvedMonth(l, next), true
}
