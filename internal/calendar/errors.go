package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/aviv-calendar/internal/ledger"
)

var (
	// ErrInternal marks results that break the calendar's own invariants
	ErrInternal = errors.New("internal calendar error")

	ErrNoCoverage           = errors.New("no month-start record covers the instant")
	ErrDayOverflow          = errors.New("derived day outside the month")
	ErrAmbiguousFeastSearch = errors.New("feast search found no matching day")
)

// NoCoverageError names the instant that could not be placed and the closest records
type NoCoverageError struct {
	Query   time.Time
	Nearest []ledger.MonthKey
}

func (e *NoCoverageError) Error() string {
	nearest := make([]string, 0, len(e.Nearest))
	for _, k := range e.Nearest {
		nearest = append(nearest, k.String())
	}
	if len(nearest) == 0 {
		return fmt.Sprintf("no month-start record covers %s: ledger is empty", e.Query.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("no month-start record covers %s (nearest: %s)",
		e.Query.Format("2006-01-02 15:04"), strings.Join(nearest, ", "))
}

func (e *NoCoverageError) Is(target error) bool {
	return target == ErrNoCoverage
}

// DayOverflowError reports a day index outside 1..30 or beyond the known month length
type DayOverflowError struct {
	Month ResolvedMonth
	Day   int
}

func (e *DayOverflowError) Error() string {
	if e.Month.Length > 0 {
		return fmt.Sprintf("day %d outside month %s of %d days", e.Day, e.Month.Key, e.Month.Length)
	}
	return fmt.Sprintf("day %d outside month %s", e.Day, e.Month.Key)
}

func (e *DayOverflowError) Is(target error) bool {
	return target == ErrDayOverflow || target == ErrInternal
}

// AmbiguousFeastSearchError reports a capped feast search that found nothing
type AmbiguousFeastSearchError struct {
	Feast  string
	Month  int
	Day    int
	Window int
}

func (e *AmbiguousFeastSearchError) Error() string {
	return fmt.Sprintf("%s not found within %d days of %d/%d", e.Feast, e.Window, e.Month, e.Day)
}

func (e *AmbiguousFeastSearchError) Is(target error) bool {
	return target == ErrAmbiguousFeastSearch || target == ErrInternal
}
