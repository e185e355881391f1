package calendar

import (
	"strings"

	"github.com/username/aviv-calendar/internal/ledger"
)

// FeastInfo classifies one day of the calendar
type FeastInfo struct {
	IsFeastDay    bool
	IsHighSabbath bool
	Name          string // simultaneous feasts are joined with "/"
	OmerDay       int    // 1..49 while counting toward the Feast of Weeks, else 0
	WeeklySabbath bool

	// Undetermined lists feasts that could not be decided for lack of ledger data
	Undetermined []string
}

// IsSabbath reports a weekly Sabbath or a feast on which no work is done
func (f FeastInfo) IsSabbath() bool {
	return f.WeeklySabbath || f.IsHighSabbath
}

// DayQuery is the input to ClassifyDay
type DayQuery struct {
	Month           int
	Day             int
	Weekday         Weekday
	PrevMonthLength int // 0 when unknown
	YearDay         int // 0-based days since 1/1; negative when unknown
}

// Classify classifies (month, day) given its weekday and the length of the
// previous month. Feasts counted from the start of the year are only decided
// in month 1; use ClassifyDay to supply the day of the year.
func Classify(month, day int, weekday Weekday, prevMonthLength int) (FeastInfo, error) {
	return ClassifyDay(DayQuery{
		Month:           month,
		Day:             day,
		Weekday:         weekday,
		PrevMonthLength: prevMonthLength,
		YearDay:         -1,
	})
}

// ClassifyDay classifies a day against the fixed tables, the Hanukkah tables
// and the Firstfruits / Feast of Weeks count
func ClassifyDay(q DayQuery) (FeastInfo, error) {
	if err := q.validate(); err != nil {
		return FeastInfo{}, err
	}

	info := FeastInfo{WeeklySabbath: q.Weekday == Sabbath}
	var names []string
	add := func(f feast) {
		names = append(names, f.name)
		info.IsFeastDay = true
		if f.highSabbath {
			info.IsHighSabbath = true
		}
	}

	if f, ok := fixedFeasts[monthDay{q.Month, q.Day}]; ok {
		add(f)
	}

	if q.Month == 10 {
		switch {
		case q.PrevMonthLength == 0:
			if q.Day <= len(hanukkahByPrevLength[28]) {
				info.Undetermined = append(info.Undetermined, hanukkahName)
			}
		default:
			if name, ok := hanukkahByPrevLength[q.PrevMonthLength][q.Day]; ok {
				add(feast{name: name})
			}
		}
	}

	yearDay := q.YearDay
	if q.Month == 1 {
		yearDay = q.Day - 1
	}
	switch {
	case q.Month > 3 || (q.Month == 3 && q.Day > weeksLatestDay):
		// past the Feast of Weeks
	case yearDay < 0:
		info.Undetermined = append(info.Undetermined, weeksName)
	default:
		firstfruits, err := firstfruitsYearDay(yearDay, q.Weekday)
		if err != nil {
			return FeastInfo{}, err
		}
		omer := yearDay - firstfruits + 1
		switch {
		case omer == 1:
			add(feast{name: firstfruitsName})
			info.OmerDay = omer
		case omer > 1 && omer <= omerDays:
			info.OmerDay = omer
		case omer == omerDays+1:
			add(feast{name: weeksName, highSabbath: true})
		}
	}

	info.Name = strings.Join(names, "/")
	return info, nil
}

// firstfruitsYearDay returns the 0-based day of the year of Firstfruits: the
// first 1st day of the week after the 15th of month 1, at most seven days on.
func firstfruitsYearDay(yearDay int, weekday Weekday) (int, error) {
	start := unleavenedBreadStart - 1
	w := weekday.Add(start - yearDay)
	for offset := 1; offset <= firstfruitsWindow; offset++ {
		if w.Add(offset) == FirstDay {
			return start + offset, nil
		}
	}
	return 0, &AmbiguousFeastSearchError{
		Feast:  firstfruitsName,
		Month:  1,
		Day:    unleavenedBreadStart,
		Window: firstfruitsWindow,
	}
}

func (q DayQuery) validate() error {
	if err := ledger.CheckRange("month", q.Month, ledger.MinMonth, ledger.MaxMonth); err != nil {
		return err
	}
	if err := ledger.CheckRange("day", q.Day, 1, ledger.MaxMonthLength); err != nil {
		return err
	}
	if err := ledger.CheckRange("weekday", int(q.Weekday), int(FirstDay), int(Sabbath)); err != nil {
		return err
	}
	if q.PrevMonthLength != 0 {
		if err := ledger.CheckRange("previous month length", q.PrevMonthLength, 28, ledger.MaxMonthLength); err != nil {
			return err
		}
	}
	return nil
}
