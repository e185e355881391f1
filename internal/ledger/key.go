package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/aviv-calendar/pkg/dateutil"
)

const (
	MinYear  = 4001
	MaxYear  = 8001
	MinMonth = 1
	MaxMonth = 13

	MinMonthLength = 29
	MaxMonthLength = 30
)

// MonthKey identifies a biblical month. Its integer form is Year*100 + Month.
type MonthKey struct {
	Year  int
	Month int
}

// NewMonthKey validates year and month and returns the key
func NewMonthKey(year, month int) (MonthKey, error) {
	if err := CheckRange("year", year, MinYear, MaxYear); err != nil {
		return MonthKey{}, err
	}
	if err := CheckRange("month", month, MinMonth, MaxMonth); err != nil {
		return MonthKey{}, err
	}
	return MonthKey{Year: year, Month: month}, nil
}

// ParseMonthKey decodes the YYYYMM integer form
func ParseMonthKey(v int) (MonthKey, error) {
	return NewMonthKey(v/100, v%100)
}

// Int returns the YYYYMM integer form
func (k MonthKey) Int() int {
	return k.Year*100 + k.Month
}

// Less orders keys chronologically
func (k MonthKey) Less(other MonthKey) bool {
	return k.Int() < other.Int()
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%d-%02d", k.Year, k.Month)
}

// Confidence says whether a month start was sighted or predicted
type Confidence int

const (
	Observed Confidence = iota + 1
	Estimated
)

func (c Confidence) String() string {
	switch c {
	case Observed:
		return "observed"
	case Estimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// ParseConfidence accepts "observed"/"estimated"; empty input means observed.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "observed":
		return Observed, nil
	case "estimated", "estimate":
		return Estimated, nil
	default:
		return 0, fmt.Errorf("unknown confidence %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MonthRecord is one entry of the month-start ledger
type MonthRecord struct {
	Key        MonthKey
	Epoch      time.Time // civil date of day 1, midnight UTC
	Confidence Confidence
	Source     string
}

// NewMonthRecord normalizes epoch to its civil date
func NewMonthRecord(key MonthKey, epoch time.Time, confidence Confidence, source string) MonthRecord {
	if confidence == 0 {
		confidence = Observed
	}
	return MonthRecord{
		Key:        key,
		Epoch:      dateutil.CivilDate(epoch),
		Confidence: confidence,
		Source:     source,
	}
}

// parseRecord builds a record from the YYYYMM key, an ISO date and a confidence label
func parseRecord(key int, start, confidence, source string) (MonthRecord, error) {
	k, err := ParseMonthKey(key)
	if err != nil {
		return MonthRecord{}, fmt.Errorf("invalid month key %d: %w", key, err)
	}
	epoch, err := time.Parse("2006-01-02", strings.TrimSpace(start))
	if err != nil {
		return MonthRecord{}, fmt.Errorf("invalid start date %q for %s: %w", start, k, err)
	}
	c, err := ParseConfidence(confidence)
	if err != nil {
		return MonthRecord{}, fmt.Errorf("month %s: %w", k, err)
	}
	return NewMonthRecord(k, epoch, c, source), nil
}
