package calendar

import "github.com/username/aviv-calendar/pkg/dateutil"

type monthDay struct {
	month int
	day   int
}

type feast struct {
	name        string
	highSabbath bool
}

const (
	unleavenedBreadStart = 15
	unleavenedBreadDays  = 7
	tabernaclesStart     = 15
	tabernaclesDays      = 7
	hanukkahStart        = 25
	hanukkahMonth9Days   = 6

	firstfruitsWindow = 7
	omerDays          = 49

	// latest Feast of Weeks: Firstfruits on 1/22 and two 29-day months
	weeksLatestDay = 13

	firstfruitsName = "Firstfruits"
	weeksName       = "Feast of Weeks"
	hanukkahName    = "Hanukkah"
)

// fixedFeasts holds every feast whose (month, day) never moves
var fixedFeasts = buildFixedFeasts()

// hanukkahByPrevLength maps the length of month 9 to the Hanukkah days that
// spill into month 10
var hanukkahByPrevLength = map[int]map[int]string{
	28: {1: hanukkahDay(5), 2: hanukkahDay(6), 3: hanukkahDay(7), 4: hanukkahDay(8)},
	29: {1: hanukkahDay(6), 2: hanukkahDay(7), 3: hanukkahDay(8)},
	30: {1: hanukkahDay(7), 2: hanukkahDay(8)},
}

func buildFixedFeasts() map[monthDay]feast {
	feasts := map[monthDay]feast{
		{1, 1}:  {"Head of the Year", false},
		{1, 14}: {"Passover", false},
		{7, 1}:  {"Feast of Trumpets", true},
		{7, 10}: {"Day of Atonement", true},
		{7, 22}: {"Eighth Day Assembly", true},
	}

	for i := 1; i <= unleavenedBreadDays; i++ {
		feasts[monthDay{1, unleavenedBreadStart + i - 1}] = feast{
			name:        dateutil.Ordinal(i) + " day of Unleavened Bread",
			highSabbath: i == 1 || i == unleavenedBreadDays,
		}
	}
	for i := 1; i <= tabernaclesDays; i++ {
		feasts[monthDay{7, tabernaclesStart + i - 1}] = feast{
			name:        dateutil.Ordinal(i) + " day of Tabernacles",
			highSabbath: i == 1,
		}
	}
	// Day 30 of month 9 only exists in a 30-day month.
	for i := 1; i <= hanukkahMonth9Days; i++ {
		feasts[monthDay{9, hanukkahStart + i - 1}] = feast{name: hanukkahDay(i)}
	}

	return feasts
}

func hanukkahDay(n int) string {
	return dateutil.Ordinal(n) + " day of " + hanukkahName
}
