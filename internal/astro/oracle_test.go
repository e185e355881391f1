package astro

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMoonAge(t *testing.T) {
	// New moon of 2017-12-18 at 06:30 UTC.
	tests := []struct {
		name    string
		at      time.Time
		wantMin float64
		wantMax float64
	}{
		{"six hours after new moon", time.Date(2017, 12, 18, 12, 30, 0, 0, time.UTC), 0.15, 0.35},
		{"twelve days later", time.Date(2017, 12, 30, 20, 0, 0, 0, time.UTC), 12.4, 12.7},
		{"just before new moon", time.Date(2017, 12, 18, 0, 0, 0, 0, time.UTC), 29.0, 29.9},
		{"full moon", time.Date(2018, 1, 2, 2, 24, 0, 0, time.UTC), 14.5, 15.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age := MoonAge(tt.at)

			if age < tt.wantMin || age > tt.wantMax {
				t.Errorf("MoonAge(%v) = %.3f, want range [%v, %v]", tt.at, age, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestMoonAgeNeverNegative(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24*400; h += 7 {
		at := start.Add(time.Duration(h) * time.Hour)
		age := MoonAge(at)
		if age < 0 || age > 30 {
			t.Fatalf("MoonAge(%v) = %.3f, want range [0, 30]", at, age)
		}
	}
}

func TestLastNewMoon(t *testing.T) {
	got := LastNewMoon(time.Date(2017, 12, 30, 20, 0, 0, 0, time.UTC))
	want := time.Date(2017, 12, 18, 6, 30, 0, 0, time.UTC)

	if diff := math.Abs(got.Sub(want).Minutes()); diff > 30 {
		t.Errorf("LastNewMoon() = %v, want within 30 minutes of %v", got, want)
	}
}

func TestVernalEquinox(t *testing.T) {
	got := VernalEquinox(2016)
	if got.Year() != 2016 || got.Month() != time.March || got.Day() != 20 {
		t.Errorf("VernalEquinox(2016) = %v, want 2016-03-20", got)
	}
}

func TestSunStatus(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	oracle := NewOracle(logger)

	jerusalem, err := Lookup("Jerusalem")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	tests := []struct {
		name      string
		at        time.Time
		wantRisen bool
		wantSet   bool
	}{
		{"before dawn", time.Date(2017, 12, 30, 5, 0, 0, 0, jerusalem.TZ), false, false},
		{"midday", time.Date(2017, 12, 30, 12, 0, 0, 0, jerusalem.TZ), true, false},
		{"evening", time.Date(2017, 12, 30, 22, 0, 0, 0, jerusalem.TZ), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := oracle.SunStatus(tt.at, jerusalem)
			if err != nil {
				t.Fatalf("SunStatus() error = %v", err)
			}

			if info.HasRisen != tt.wantRisen || info.HasSet != tt.wantSet {
				t.Errorf("SunStatus(%v) = risen %v set %v, want risen %v set %v",
					tt.at, info.HasRisen, info.HasSet, tt.wantRisen, tt.wantSet)
			}
			if info.Sunset.Hour() != 16 {
				t.Errorf("Sunset = %v, want about 16:45 local", info.Sunset)
			}
			if info.Sunset.Location() != jerusalem.TZ {
				t.Errorf("Sunset location = %v, want %v", info.Sunset.Location(), jerusalem.TZ)
			}
		})
	}
}

func TestSunStatusPolarNight(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	oracle := NewOracle(logger)

	tromso, err := Lookup("tromso")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	_, err = oracle.SunStatus(time.Date(2017, 12, 21, 12, 0, 0, 0, tromso.TZ), tromso)
	if !errors.Is(err, ErrNoSunEvent) {
		t.Errorf("SunStatus() error = %v, want ErrNoSunEvent", err)
	}
}
