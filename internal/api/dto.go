package api

import (
	"time"

	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/internal/ledger"
)

// DateDTO is the JSON form of a resolved date
type DateDTO struct {
	Date                 string    `json:"date"`
	Year                 int       `json:"year"`
	Month                int       `json:"month"`
	MonthName            string    `json:"month_name"`
	TraditionalMonthName string    `json:"traditional_month_name"`
	Day                  int       `json:"day"`
	Weekday              string    `json:"weekday"`
	Sabbath              bool      `json:"sabbath"`
	Confidence           string    `json:"confidence"`
	MonthStart           string    `json:"month_start"`
	MonthLength          int       `json:"month_length,omitempty"`
	Feast                *FeastDTO `json:"feast,omitempty"`
	OmerDay              int       `json:"omer_day,omitempty"`
	AvivBarley           *bool     `json:"aviv_barley,omitempty"`

	Location LocationDTO `json:"location"`
	Civil    time.Time   `json:"civil"`
	Sunrise  time.Time   `json:"sunrise"`
	Sunset   time.Time   `json:"sunset"`
	SunSet   bool        `json:"sun_has_set"`
	MoonAge  float64     `json:"moon_age_days"`

	Warnings []string `json:"warnings,omitempty"`
}

// FeastDTO describes a feast day
type FeastDTO struct {
	Name        string `json:"name"`
	HighSabbath bool   `json:"high_sabbath"`
}

// LocationDTO describes where a date was resolved
type LocationDTO struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// MonthDTO is one ledger record with its derived length
type MonthDTO struct {
	Key        string `json:"key"`
	Start      string `json:"start"`
	Confidence string `json:"confidence"`
	Source     string `json:"source,omitempty"`
	Length     int    `json:"length,omitempty"`
}

// MonthsDTO lists ledger records and anomalies
type MonthsDTO struct {
	Modified  *time.Time `json:"modified,omitempty"`
	Cached    bool       `json:"cached"`
	Months    []MonthDTO `json:"months"`
	Anomalies []string   `json:"anomalies,omitempty"`
}

func toDateDTO(d *calendar.ResolvedDate) DateDTO {
	dto := DateDTO{
		Date:                 d.String(),
		Year:                 d.Year,
		Month:                d.Month,
		MonthName:            d.MonthName(),
		TraditionalMonthName: d.TraditionalMonthName(),
		Day:                  d.Day,
		Weekday:              d.Weekday.String(),
		Sabbath:              d.IsSabbath(),
		Confidence:           d.Confidence.String(),
		MonthStart:           d.MonthStart.Format("2006-01-02"),
		MonthLength:          d.MonthLength,
		OmerDay:              d.Feast.OmerDay,
		AvivBarley:           d.AvivBarley,
		Location: LocationDTO{
			Name:      d.Location.String(),
			Latitude:  d.Location.Latitude,
			Longitude: d.Location.Longitude,
		},
		Civil:    d.Civil,
		Sunrise:  d.Sun.Sunrise,
		Sunset:   d.Sun.Sunset,
		SunSet:   d.Sun.HasSet,
		MoonAge:  d.MoonPhase,
		Warnings: d.Warnings,
	}
	if d.Location.TZ != nil {
		dto.Location.Timezone = d.Location.TZ.String()
	}
	if d.Feast.IsFeastDay {
		dto.Feast = &FeastDTO{
			Name:        d.Feast.Name,
			HighSabbath: d.Feast.IsHighSabbath,
		}
	}
	return dto
}

func toMonthsDTO(s *ledger.Snapshot, from ledger.MonthKey) MonthsDTO {
	dto := MonthsDTO{
		Cached: s.Cached,
		Months: []MonthDTO{},
	}
	if !s.Modified.IsZero() {
		modified := s.Modified
		dto.Modified = &modified
	}

	for _, rec := range s.Ledger.Records() {
		if rec.Key.Less(from) {
			continue
		}
		length, err := s.Ledger.Length(rec.Key)
		if err != nil {
			length = 0
		}
		dto.Months = append(dto.Months, MonthDTO{
			Key:        rec.Key.String(),
			Start:      rec.Epoch.Format("2006-01-02"),
			Confidence: rec.Confidence.String(),
			Source:     rec.Source,
			Length:     length,
		})
	}
	for _, a := range s.Ledger.Anomalies() {
		dto.Anomalies = append(dto.Anomalies, a.Error())
	}
	return dto
}
