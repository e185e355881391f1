package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/internal/ledger"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

func dateCmd() *cobra.Command {
	var (
		placeName string
		lat, lon  float64
		tzName    string
		at        string
		year      int
		month     int
		day       int
		hour      int
	)

	cmd := &cobra.Command{
		Use:   "date",
		Short: "Show the lunisolar date for a place and time (default: now)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initializeApp()
			if err != nil {
				return err
			}

			loc := a.location
			switch {
			case cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon"):
				if tzName == "" {
					return fmt.Errorf("--tz is required with --lat/--lon")
				}
				loc, err = astro.NewLocation(placeName, "", lat, lon, tzName)
			case placeName != "":
				loc, err = astro.Lookup(placeName)
			}
			if err != nil {
				return err
			}

			instant, explicit, err := requestedInstant(cmd, loc, at, year, month, day, hour)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var date *calendar.ResolvedDate
			if explicit {
				date, err = a.engine.At(ctx, loc, instant)
			} else {
				date, err = a.engine.Now(ctx, loc)
			}
			if err != nil {
				return err
			}

			logger.Debug("Date resolved",
				zap.String("location", loc.String()),
				zap.String("date", date.String()))

			printDate(date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&placeName, "location", "l", "", fmt.Sprintf("Place name (%s)", strings.Join(astro.Places(), ", ")))
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&tzName, "tz", "", "IANA time zone for --lat/--lon")
	cmd.Flags().StringVar(&at, "at", "", "Civil instant, e.g. 2017-12-30T22:00 (local to the location)")
	cmd.Flags().IntVar(&year, "year", 0, "Civil year")
	cmd.Flags().IntVar(&month, "month", 0, "Civil month (1-12)")
	cmd.Flags().IntVar(&day, "day", 0, "Civil day of month")
	cmd.Flags().IntVar(&hour, "hour", 12, "Civil hour (0-23), used with --year/--month/--day")

	return cmd
}

// requestedInstant reports the civil instant named by the flags and whether one was named at all
func requestedInstant(cmd *cobra.Command, loc astro.Location, at string, year, month, day, hour int) (time.Time, bool, error) {
	if at != "" {
		t, err := dateutil.ParseDateIn(at, loc.TZ)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}

	if !cmd.Flags().Changed("year") && !cmd.Flags().Changed("month") && !cmd.Flags().Changed("day") {
		return time.Time{}, false, nil
	}
	if err := ledger.CheckRange("month", month, 1, 12); err != nil {
		return time.Time{}, false, err
	}
	if err := ledger.CheckRange("day", day, 1, 31); err != nil {
		return time.Time{}, false, err
	}
	if err := ledger.CheckRange("hour", hour, 0, 23); err != nil {
		return time.Time{}, false, err
	}
	t := time.Date(year, time.Month(month), day, hour, 0, 0, 0, loc.TZ)
	if t.Day() != day {
		return time.Time{}, false, fmt.Errorf("%w: %04d-%02d-%02d is not a calendar date", ledger.ErrInputRange, year, month, day)
	}
	return t, true, nil
}

func printDate(d *calendar.ResolvedDate) {
	outPrintf("\n📍 Location\n")
	outPrintln("═══════════════════════════════════════════════════════")
	outPrintf("  Place:        %s\n", d.Location)
	outPrintf("  Coordinates:  %.4f, %.4f\n", d.Location.Latitude, d.Location.Longitude)
	outPrintf("  Time zone:    %s\n", d.Location.TZ)

	outPrintf("\n🌙 Lunisolar\n")
	outPrintln("═══════════════════════════════════════════════════════")
	outPrintf("  Date:         %s\n", d)
	outPrintf("  Month:        %s (%s)\n", d.MonthName(), d.TraditionalMonthName())
	outPrintf("  Day:          %s\n", dateutil.Ordinal(d.Day))
	outPrintf("  Weekday:      %s\n", d.Weekday)
	outPrintf("  Month start:  %s (%s)\n", d.MonthStart.Format("2006-01-02"), d.Confidence)
	if d.MonthLength > 0 {
		outPrintf("  Month length: %d days\n", d.MonthLength)
	} else {
		outPrintf("  Month length: not yet known\n")
	}
	if d.Feast.IsFeastDay {
		outPrintf("  Feast:        %s\n", d.Feast.Name)
	}
	if d.Feast.OmerDay > 0 {
		outPrintf("  Omer:         day %d of 49\n", d.Feast.OmerDay)
	}
	outPrintf("  Sabbath:      %s\n", sabbathLabel(d))
	if d.AvivBarley != nil {
		outPrintf("  Aviv barley:  %t\n", *d.AvivBarley)
	}

	outPrintf("\n📅 Civil\n")
	outPrintln("═══════════════════════════════════════════════════════")
	outPrintf("  Instant:      %s\n", d.Civil.Format("2006-01-02 15:04 MST"))
	outPrintf("  Weekday:      %s\n", d.Civil.Weekday())

	outPrintf("\n☀️  Solar\n")
	outPrintln("═══════════════════════════════════════════════════════")
	outPrintf("  Sunrise:      %s\n", d.Sun.Sunrise.Format("15:04"))
	outPrintf("  Sunset:       %s\n", d.Sun.Sunset.Format("15:04"))
	outPrintf("  Sun has set:  %t\n", d.Sun.HasSet)
	outPrintf("  Moon age:     %.1f days\n", d.MoonPhase)
	outPrintf("  New moon:     %s\n", astro.LastNewMoon(d.Civil).In(d.Location.TZ).Format("2006-01-02 15:04"))
	if d.Month == 1 || d.Month >= 12 {
		outPrintf("  Equinox:      %s\n", astro.VernalEquinox(d.Civil.Year()).In(d.Location.TZ).Format("2006-01-02 15:04"))
	}

	if len(d.Warnings) > 0 {
		outPrintln("\n⚠️  Warnings")
		for _, w := range d.Warnings {
			outPrintf("  • %s\n", w)
		}
	}
}

func sabbathLabel(d *calendar.ResolvedDate) string {
	switch {
	case d.Feast.IsHighSabbath && d.Feast.WeeklySabbath:
		return "yes (weekly and High Sabbath)"
	case d.Feast.IsHighSabbath:
		return "yes (High Sabbath)"
	case d.Feast.WeeklySabbath:
		return "yes"
	default:
		return "no"
	}
}
