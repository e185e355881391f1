package astro

import (
	"errors"
	"fmt"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
	"github.com/mooncaker816/learnmeeus/v3/moonphase"
	"github.com/mooncaker816/learnmeeus/v3/solstice"
	"github.com/nathan-osman/go-sunrise"
	"go.uber.org/zap"
)

const (
	// SynodicMonth is the mean interval between new moons, in days
	SynodicMonth = 29.530588853

	j2000       = 2451545.0
	daysPerYear = 365.25
)

// ErrNoSunEvent is returned for polar day or night, when the sun does not cross the horizon
var ErrNoSunEvent = errors.New("no sunrise or sunset on this date")

// SunInfo describes the sun for the local civil date of an instant
type SunInfo struct {
	Sunrise  time.Time
	Sunset   time.Time
	HasRisen bool
	HasSet   bool
}

// Oracle answers solar and lunar questions for a location
type Oracle struct {
	logger *zap.Logger
}

// NewOracle creates a new Oracle
func NewOracle(logger *zap.Logger) *Oracle {
	return &Oracle{logger: logger}
}

// SunStatus returns sunrise and sunset for the local date of at, and whether
// each has already happened at that instant
func (o *Oracle) SunStatus(at time.Time, loc Location) (SunInfo, error) {
	local := at.In(loc.TZ)
	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, local.Year(), local.Month(), local.Day())
	if rise.IsZero() || set.IsZero() {
		return SunInfo{}, fmt.Errorf("%w: %s at %s", ErrNoSunEvent, local.Format("2006-01-02"), loc)
	}

	info := SunInfo{
		Sunrise:  rise.In(loc.TZ),
		Sunset:   set.In(loc.TZ),
		HasRisen: !local.Before(rise),
		HasSet:   !local.Before(set),
	}

	o.logger.Debug("Sun status",
		zap.String("location", loc.String()),
		zap.Time("at", local),
		zap.Time("sunset", info.Sunset),
		zap.Bool("has_set", info.HasSet))

	return info, nil
}

// MoonPhase returns the age of the moon in days at the given instant
func (o *Oracle) MoonPhase(at time.Time, loc Location) float64 {
	return MoonAge(at)
}

// MoonAge returns the days elapsed since the most recent new moon
func MoonAge(at time.Time) float64 {
	jd := julian.TimeToJD(at.UTC())
	return jd - previousNewMoon(jd)
}

// LastNewMoon returns the instant of the most recent new moon, in UTC
func LastNewMoon(at time.Time) time.Time {
	return julian.JDToTime(previousNewMoon(julian.TimeToJD(at.UTC())))
}

// VernalEquinox returns the March equinox of the given civil year, in UTC
func VernalEquinox(year int) time.Time {
	return julian.JDToTime(solstice.March(year))
}

// previousNewMoon finds the new moon at or before jd. moonphase.New returns
// the new moon nearest a decimal year, so step one lunation at a time until
// jd sits between two consecutive new moons.
func previousNewMoon(jd float64) float64 {
	step := SynodicMonth / daysPerYear
	year := 2000 + (jd-j2000)/daysPerYear
	nm := moonphase.New(year)

	for i := 0; i < 4; i++ {
		if nm > jd {
			year -= step
			nm = moonphase.New(year)
			continue
		}
		if next := moonphase.New(year + step); next <= jd {
			year += step
			nm = next
			continue
		}
		break
	}

	return nm
}
