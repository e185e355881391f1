package ledger

import (
	"fmt"
	"sort"

	"github.com/username/aviv-calendar/pkg/dateutil"
)

// Ledger is an immutable, key-ordered set of month-start records.
// Use Upsert to derive an updated copy.
type Ledger struct {
	records []MonthRecord
	index   map[MonthKey]int
}

// New builds a ledger from records. Later records override earlier ones with
// the same key. Epochs must strictly increase with keys.
func New(records ...MonthRecord) (*Ledger, error) {
	byKey := make(map[MonthKey]MonthRecord, len(records))
	for _, r := range records {
		if _, err := NewMonthKey(r.Key.Year, r.Key.Month); err != nil {
			return nil, fmt.Errorf("invalid record key %v: %w", r.Key, err)
		}
		byKey[r.Key] = NewMonthRecord(r.Key, r.Epoch, r.Confidence, r.Source)
	}

	sorted := make([]MonthRecord, 0, len(byKey))
	for _, r := range byKey {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key.Less(sorted[j].Key)
	})

	l := &Ledger{
		records: sorted,
		index:   make(map[MonthKey]int, len(sorted)),
	}
	for i, r := range sorted {
		if i > 0 && !r.Epoch.After(sorted[i-1].Epoch) {
			return nil, fmt.Errorf("%w: %s starts %s, not after %s on %s",
				ErrUnordered, r.Key, r.Epoch.Format("2006-01-02"),
				sorted[i-1].Key, sorted[i-1].Epoch.Format("2006-01-02"))
		}
		l.index[r.Key] = i
	}

	return l, nil
}

// Upsert returns a new ledger with records merged in; existing keys are replaced.
func (l *Ledger) Upsert(records ...MonthRecord) (*Ledger, error) {
	merged := make([]MonthRecord, 0, len(l.records)+len(records))
	merged = append(merged, l.records...)
	merged = append(merged, records...)
	return New(merged...)
}

// Len returns the number of records
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in key order
func (l *Ledger) Records() []MonthRecord {
	out := make([]MonthRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Get returns the record for key
func (l *Ledger) Get(key MonthKey) (MonthRecord, bool) {
	i, ok := l.index[key]
	if !ok {
		return MonthRecord{}, false
	}
	return l.records[i], true
}

// Latest returns the record with the greatest key
func (l *Ledger) Latest() (MonthRecord, bool) {
	if len(l.records) == 0 {
		return MonthRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// Next returns the key that follows key. Month 12 is followed by month 13
// only when the ledger records a 13th month for that year.
func (l *Ledger) Next(key MonthKey) MonthKey {
	switch {
	case key.Month < 12:
		return MonthKey{Year: key.Year, Month: key.Month + 1}
	case key.Month == 12:
		leap := MonthKey{Year: key.Year, Month: 13}
		if _, ok := l.index[leap]; ok {
			return leap
		}
		return MonthKey{Year: key.Year + 1, Month: 1}
	default:
		return MonthKey{Year: key.Year + 1, Month: 1}
	}
}

// Previous returns the key that precedes key. Month 1 is preceded by month 13
// of the prior year when the ledger records one.
func (l *Ledger) Previous(key MonthKey) MonthKey {
	if key.Month > 1 {
		return MonthKey{Year: key.Year, Month: key.Month - 1}
	}
	leap := MonthKey{Year: key.Year - 1, Month: 13}
	if _, ok := l.index[leap]; ok {
		return leap
	}
	return MonthKey{Year: key.Year - 1, Month: 12}
}

// Length returns the number of days in the month at key. The length is known
// only when the following month is recorded; a spacing below 29 days returns
// an Anomaly and a spacing above 30 days is treated as a gap.
func (l *Ledger) Length(key MonthKey) (int, error) {
	rec, ok := l.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s not recorded", ErrLengthUnknown, key)
	}
	next, ok := l.Get(l.Next(key))
	if !ok {
		return 0, fmt.Errorf("%w: %s is the last recorded month", ErrLengthUnknown, key)
	}

	days := dateutil.DaysBetween(rec.Epoch, next.Epoch)
	switch {
	case days < MinMonthLength:
		return 0, Anomaly{Key: key, Next: next.Key, Days: days}
	case days > MaxMonthLength:
		return 0, fmt.Errorf("%w: %s spans %d days until %s", ErrLengthUnknown, key, days, next.Key)
	}
	return days, nil
}

// Anomalies lists successive records spaced fewer than 29 or more than 30 days apart
func (l *Ledger) Anomalies() []Anomaly {
	var out []Anomaly
	for _, r := range l.records {
		next, ok := l.Get(l.Next(r.Key))
		if !ok {
			continue
		}
		days := dateutil.DaysBetween(r.Epoch, next.Epoch)
		if days < MinMonthLength || days > MaxMonthLength {
			out = append(out, Anomaly{Key: r.Key, Next: next.Key, Days: days})
		}
	}
	return out
}
