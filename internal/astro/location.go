package astro

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"
)

// ErrUnknownLocation is returned when a place name is not in the gazetteer
var ErrUnknownLocation = errors.New("unknown location")

// Location is a named point on Earth with its civil time zone
type Location struct {
	Name      string
	Region    string
	Latitude  float64
	Longitude float64
	TZ        *time.Location
}

func (l Location) String() string {
	if l.Region == "" {
		return l.Name
	}
	return l.Name + ", " + l.Region
}

// Validate checks coordinate ranges and the time zone
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", l.Longitude)
	}
	if l.TZ == nil {
		return fmt.Errorf("location %q has no time zone", l.Name)
	}
	return nil
}

type place struct {
	name     string
	region   string
	lat, lon float64
	tz       string
}

var gazetteer = map[string]place{
	"jerusalem":    {"Jerusalem", "Israel", 31.7683, 35.2137, "Asia/Jerusalem"},
	"tel aviv":     {"Tel Aviv", "Israel", 32.0853, 34.7818, "Asia/Jerusalem"},
	"stockholm":    {"Stockholm", "Sweden", 59.3293, 18.0686, "Europe/Stockholm"},
	"london":       {"London", "United Kingdom", 51.5074, -0.1278, "Europe/London"},
	"new york":     {"New York", "United States", 40.7128, -74.0060, "America/New_York"},
	"los angeles":  {"Los Angeles", "United States", 34.0522, -118.2437, "America/Los_Angeles"},
	"manila":       {"Manila", "Philippines", 14.5995, 120.9842, "Asia/Manila"},
	"sydney":       {"Sydney", "Australia", -33.8688, 151.2093, "Australia/Sydney"},
	"johannesburg": {"Johannesburg", "South Africa", -26.2041, 28.0473, "Africa/Johannesburg"},
	"sao paulo":    {"São Paulo", "Brazil", -23.5505, -46.6333, "America/Sao_Paulo"},
	"tromso":       {"Tromsø", "Norway", 69.6492, 18.9553, "Europe/Oslo"},
}

// Lookup resolves a place name from the built-in gazetteer
func Lookup(name string) (Location, error) {
	p, ok := gazetteer[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownLocation, name, strings.Join(Places(), ", "))
	}
	return NewLocation(p.name, p.region, p.lat, p.lon, p.tz)
}

// Places lists the gazetteer names
func Places() []string {
	names := make([]string, 0, len(gazetteer))
	for _, p := range gazetteer {
		names = append(names, p.name)
	}
	sort.Strings(names)
	return names
}

// NewLocation builds a Location from coordinates and an IANA zone name
func NewLocation(name, region string, lat, lon float64, tzName string) (Location, error) {
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return Location{}, fmt.Errorf("failed to load time zone %q: %w", tzName, err)
	}
	loc := Location{
		Name:      name,
		Region:    region,
		Latitude:  lat,
		Longitude: lon,
		TZ:        tz,
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}
