package calendar

import (
	"fmt"
	"time"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/ledger"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

// Weekday numbers the days of the week 1..7; the 7th is the weekly Sabbath
type Weekday int

const (
	FirstDay Weekday = 1
	Sabbath  Weekday = 7
)

// WeekdayFromCivil maps a civil weekday to the biblical one. Sunday daytime is
// the 1st day; after sunset the next day has begun.
func WeekdayFromCivil(wd time.Weekday, sunHasSet bool) Weekday {
	w := Weekday(int(wd) + 1)
	if sunHasSet {
		w = w.Add(1)
	}
	return w
}

// Add moves the weekday by days, wrapping around the week
func (w Weekday) Add(days int) Weekday {
	return Weekday(((int(w)-1+days)%7+7)%7 + 1)
}

func (w Weekday) String() string {
	return dateutil.Ordinal(int(w))
}

var traditionalMonthNames = [...]string{
	"Nisan", "Iyyar", "Sivan", "Tammuz", "Av", "Elul",
	"Tishri", "Marcheshvan", "Kislev", "Tevet", "Shevat", "Adar", "Adar II",
}

// TraditionalMonthName returns the later Hebrew name of month 1..13
func TraditionalMonthName(month int) string {
	if month < 1 || month > len(traditionalMonthNames) {
		return ""
	}
	return traditionalMonthNames[month-1]
}

// ResolvedMonth is the month a query instant falls in
type ResolvedMonth struct {
	Key        ledger.MonthKey
	Epoch      time.Time
	Confidence ledger.Confidence
	Length     int // 0 when unknown
}

func newResolvedMonth(l *ledger.Ledger, rec ledger.MonthRecord) ResolvedMonth {
	length, err := l.Length(rec.Key)
	if err != nil {
		length = 0
	}
	return ResolvedMonth{
		Key:        rec.Key,
		Epoch:      rec.Epoch,
		Confidence: rec.Confidence,
		Length:     length,
	}
}

// ResolvedDate is a civil instant expressed in the lunisolar calendar
type ResolvedDate struct {
	Year       int
	Month      int
	Day        int
	Weekday    Weekday
	Confidence ledger.Confidence
	Feast      FeastInfo

	MonthStart  time.Time
	MonthLength int // 0 when unknown
	YearDay     int // 0-based day of the year, -1 when month 1 is not recorded

	Civil      time.Time
	Location   astro.Location
	Sun        astro.SunInfo
	MoonPhase  float64
	AvivBarley *bool // reported for months 12 and 13 only

	Warnings []string
}

// IsSabbath reports a weekly Sabbath or a feast on which no work is done
func (d *ResolvedDate) IsSabbath() bool {
	return d.Feast.WeeklySabbath || d.Feast.IsHighSabbath
}

// MonthName returns the ordinal month name, e.g. "10th"
func (d *ResolvedDate) MonthName() string {
	return dateutil.Ordinal(d.Month)
}

// TraditionalMonthName returns the later Hebrew name of the month
func (d *ResolvedDate) TraditionalMonthName() string {
	return TraditionalMonthName(d.Month)
}

func (d *ResolvedDate) String() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
}
