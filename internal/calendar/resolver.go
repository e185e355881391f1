package calendar

import (
	"time"

	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/ledger"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

const (
	// queries further than this from now are resolved by search only
	historicalDays = 29

	// slack, in days of moon age, before phase evidence contradicts a month start
	phaseTolerance = 3.0
)

// Query is the instant being resolved, read in the location's zone
type Query struct {
	Instant   time.Time
	SunHasSet bool
	Phase     float64 // moon age in days at Instant
}

// Reference is the present moment the query is compared against
type Reference struct {
	Now   time.Time
	Phase float64
}

// PhaseFunc returns the moon age in days on a civil date
type PhaseFunc func(date time.Time) float64

// Resolver places a query instant in a month of the ledger
type Resolver struct {
	phase  PhaseFunc
	logger *zap.Logger
}

// NewResolver creates a new Resolver. phase may be nil, which disables the
// phase tie-break between two months begun in the same civil month.
func NewResolver(phase PhaseFunc, logger *zap.Logger) *Resolver {
	return &Resolver{
		phase:  phase,
		logger: logger,
	}
}

// IsHistorical reports whether q lies outside the current lunar cycle: more
// than 29 days from now, or on the far side of a new moon from now.
func IsHistorical(q Query, ref Reference) bool {
	days := dateutil.DaysBetween(q.Instant, ref.Now)
	switch {
	case days > historicalDays || days < -historicalDays:
		return true
	case days > 0 && q.Phase > ref.Phase:
		return true
	case days < 0 && q.Phase < ref.Phase:
		return true
	}
	return false
}

type candidate struct {
	record ledger.MonthRecord
	index  int
}

// Resolve returns the month containing q
func (r *Resolver) Resolve(l *ledger.Ledger, q Query, ref Reference) (ResolvedMonth, error) {
	if !IsHistorical(q, ref) {
		if latest, ok := l.Latest(); ok {
			idx := dayIndex(latest.Epoch, q.Instant, q.SunHasSet)
			if idx >= 1 && idx <= ledger.MaxMonthLength {
				r.logger.Debug("Resolved from latest month",
					zap.String("month", latest.Key.String()),
					zap.Int("day", idx))
				return newResolvedMonth(l, latest), nil
			}
			r.logger.Debug("Latest month does not cover query, searching",
				zap.String("month", latest.Key.String()),
				zap.Int("day", idx))
		}
	}

	return r.search(l, q)
}

func (r *Resolver) search(l *ledger.Ledger, q Query) (ResolvedMonth, error) {
	civil := dateutil.CivilDate(q.Instant)
	limit := civil.AddDate(0, 0, ledger.MaxMonthLength)

	var (
		begun      []candidate
		lastBefore *ledger.MonthRecord
		firstAfter *ledger.MonthRecord
	)

	for _, rec := range l.Records() {
		if rec.Epoch.After(limit) {
			break
		}

		idx := dayIndex(rec.Epoch, q.Instant, q.SunHasSet)
		if idx < 1 {
			if firstAfter == nil {
				after := rec
				firstAfter = &after
			}
			continue
		}
		before := rec
		lastBefore = &before

		length, err := l.Length(rec.Key)
		switch {
		case err == nil && idx > length:
			continue
		case err != nil && idx > ledger.MaxMonthLength:
			continue
		}
		begun = append(begun, candidate{record: rec, index: idx})
	}

	if len(begun) == 0 {
		if firstAfter == nil {
			firstAfter = r.firstAfter(l, civil)
		}
		return ResolvedMonth{}, &NoCoverageError{Query: q.Instant, Nearest: nearestKeys(lastBefore, firstAfter)}
	}

	chosen := len(begun) - 1
	for chosen > 0 {
		c, prev := begun[chosen], begun[chosen-1]
		if !dateutil.IsSameMonth(c.record.Epoch, civil) || !dateutil.IsSameMonth(prev.record.Epoch, civil) {
			break
		}
		if !r.contradicted(c, q) {
			break
		}
		r.logger.Debug("Month start contradicted by moon phase, using previous month",
			zap.String("month", c.record.Key.String()),
			zap.String("previous", prev.record.Key.String()),
			zap.Float64("phase", q.Phase))
		chosen--
	}

	return newResolvedMonth(l, begun[chosen].record), nil
}

// contradicted reports whether the moon at the query is older than a month
// beginning at c could explain
func (r *Resolver) contradicted(c candidate, q Query) bool {
	if r.phase == nil {
		return false
	}
	startPhase := r.phase(c.record.Epoch)
	if q.Phase < startPhase {
		return false
	}
	return q.Phase > startPhase+float64(c.index-1)+phaseTolerance
}

func (r *Resolver) firstAfter(l *ledger.Ledger, civil time.Time) *ledger.MonthRecord {
	records := l.Records()
	for i := range records {
		if records[i].Epoch.After(civil) {
			return &records[i]
		}
	}
	return nil
}

func nearestKeys(before, after *ledger.MonthRecord) []ledger.MonthKey {
	var keys []ledger.MonthKey
	if before != nil {
		keys = append(keys, before.Key)
	}
	if after != nil {
		keys = append(keys, after.Key)
	}
	return keys
}
