package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/ledger"
)

const (
	outdatedWarning     = "month-start data could not be refreshed; estimates may be outdated"
	baselineOnlyWarning = "month-start feed unavailable; using built-in historical data only"

	// month starts are read at the evening their first day begins
	epochEveningHour = 18
)

// Oracle supplies sun and moon data for a location
type Oracle interface {
	SunStatus(at time.Time, loc astro.Location) (astro.SunInfo, error)
	MoonPhase(at time.Time, loc astro.Location) float64
}

// LedgerStore supplies ledger snapshots, refreshing them when stale
type LedgerStore interface {
	Snapshot() *ledger.Snapshot
	EnsureFresh(ctx context.Context, moonAge float64) (*ledger.Snapshot, bool, error)
}

// Engine resolves civil instants to lunisolar dates
type Engine struct {
	store  LedgerStore
	oracle Oracle
	logger *zap.Logger
	now    func() time.Time
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new Engine
func NewEngine(store LedgerStore, oracle Oracle, logger *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		oracle: oracle,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now resolves the present moment at loc. A stale ledger is refreshed first;
// without any cached ledger a failed refresh is an error.
func (e *Engine) Now(ctx context.Context, loc astro.Location) (*ResolvedDate, error) {
	now := e.now().In(loc.TZ)
	phase := e.oracle.MoonPhase(now, loc)

	snapshot, outdated, err := e.store.EnsureFresh(ctx, phase)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh month-start ledger: %w", err)
	}

	date, err := e.resolve(snapshot, loc, now, now, phase)
	if err != nil {
		return nil, err
	}
	if outdated {
		date.Warnings = append(date.Warnings, outdatedWarning)
	}
	return date, nil
}

// At resolves an explicit instant at loc. When the ledger cannot be refreshed
// the current snapshot is used and a warning is attached.
func (e *Engine) At(ctx context.Context, loc astro.Location, at time.Time) (*ResolvedDate, error) {
	now := e.now().In(loc.TZ)
	phase := e.oracle.MoonPhase(now, loc)

	var warning string
	snapshot, outdated, err := e.store.EnsureFresh(ctx, phase)
	switch {
	case err != nil:
		e.logger.Warn("Ledger refresh failed, resolving against current snapshot",
			zap.Error(err))
		snapshot = e.store.Snapshot()
		warning = baselineOnlyWarning
		if snapshot.Cached {
			warning = outdatedWarning
		}
	case outdated:
		warning = outdatedWarning
	}

	date, err := e.resolve(snapshot, loc, at.In(loc.TZ), now, phase)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		date.Warnings = append(date.Warnings, warning)
	}
	return date, nil
}

func (e *Engine) resolve(snapshot *ledger.Snapshot, loc astro.Location, at, now time.Time, nowPhase float64) (*ResolvedDate, error) {
	sun, err := e.oracle.SunStatus(at, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to get sun status: %w", err)
	}

	phase := nowPhase
	if !at.Equal(now) {
		phase = e.oracle.MoonPhase(at, loc)
	}

	l := snapshot.Ledger
	q := Query{Instant: at, SunHasSet: sun.HasSet, Phase: phase}

	month, err := NewResolver(e.phaseFunc(loc), e.logger).Resolve(l, q, Reference{Now: now, Phase: nowPhase})
	if err != nil {
		return nil, err
	}
	if next, changed := Revalidate(l, month, q); changed {
		e.logger.Info("Moon phase inconclusive and following month has begun",
			zap.String("resolved", month.Key.String()),
			zap.String("following", next.Key.String()),
			zap.Float64("phase", phase))
		month = next
	}

	day, weekday, err := DeriveDay(month, at, sun.HasSet)
	if err != nil {
		return nil, err
	}

	date := &ResolvedDate{
		Year:        month.Key.Year,
		Month:       month.Key.Month,
		Day:         day,
		Weekday:     weekday,
		Confidence:  month.Confidence,
		MonthStart:  month.Epoch,
		MonthLength: month.Length,
		YearDay:     yearDay(l, month.Key.Year, at, sun.HasSet),
		Civil:       at,
		Location:    loc,
		Sun:         sun,
		MoonPhase:   phase,
	}

	prevLength, err := l.Length(l.Previous(month.Key))
	if err != nil {
		prevLength = 0
		if errors.Is(err, ledger.ErrInvalidMonthLength) {
			date.Warnings = append(date.Warnings, err.Error())
		}
	}

	info, err := ClassifyDay(DayQuery{
		Month:           date.Month,
		Day:             date.Day,
		Weekday:         date.Weekday,
		PrevMonthLength: prevLength,
		YearDay:         date.YearDay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", date, err)
	}
	date.Feast = info
	for _, name := range info.Undetermined {
		date.Warnings = append(date.Warnings, undeterminedWarning(name))
	}

	if date.Month >= 12 {
		date.AvivBarley = snapshot.AvivBarley
	}

	e.logger.Debug("Resolved date",
		zap.String("location", loc.String()),
		zap.Time("civil", at),
		zap.String("date", date.String()),
		zap.String("weekday", date.Weekday.String()),
		zap.Bool("sabbath", date.IsSabbath()))

	return date, nil
}

// phaseFunc reads the moon on the evening a month starting on date begins
func (e *Engine) phaseFunc(loc astro.Location) PhaseFunc {
	return func(date time.Time) float64 {
		evening := time.Date(date.Year(), date.Month(), date.Day(), epochEveningHour, 0, 0, 0, loc.TZ)
		return e.oracle.MoonPhase(evening, loc)
	}
}

func yearDay(l *ledger.Ledger, year int, at time.Time, sunHasSet bool) int {
	first, ok := l.Get(ledger.MonthKey{Year: year, Month: 1})
	if !ok {
		return -1
	}
	return dayIndex(first.Epoch, at, sunHasSet) - 1
}

func undeterminedWarning(feast string) string {
	switch feast {
	case hanukkahName:
		return "Hanukkah cannot be determined: length of month 9 is unknown"
	case weeksName:
		return "Feast of Weeks cannot be determined: start of month 1 is not recorded"
	default:
		return feast + " cannot be determined"
	}
}
