package calendar

import (
	"errors"
	"strings"
	"testing"

	"github.com/username/aviv-calendar/internal/ledger"
)

func TestClassifyFixedFeasts(t *testing.T) {
	tests := []struct {
		name        string
		month       int
		day         int
		weekday     Weekday
		wantFeast   bool
		wantHigh    bool
		wantName    string
		wantSabbath bool
	}{
		{"first day of Unleavened Bread", 1, 15, 3, true, true, "Unleavened Bread", true},
		{"Passover", 1, 14, 2, true, false, "Passover", false},
		{"middle of Unleavened Bread", 1, 17, 5, true, false, "3rd day of Unleavened Bread", false},
		{"last day of Unleavened Bread", 1, 21, 2, true, true, "7th day of Unleavened Bread", true},
		{"Trumpets", 7, 1, 2, true, true, "Trumpets", true},
		{"Atonement", 7, 10, 1, true, true, "Atonement", true},
		{"Tabernacles first day", 7, 15, 4, true, true, "1st day of Tabernacles", true},
		{"Tabernacles", 7, 18, 7, true, false, "4th day of Tabernacles", true},
		{"Eighth Day", 7, 22, 4, true, true, "Eighth Day", true},
		{"Hanukkah in month 9", 9, 25, 3, true, false, "1st day of Hanukkah", false},
		{"weekly Sabbath", 6, 12, 7, false, false, "", true},
		{"ordinary day", 6, 12, 3, false, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Classify(tt.month, tt.day, tt.weekday, 0)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}

			if info.IsFeastDay != tt.wantFeast || info.IsHighSabbath != tt.wantHigh {
				t.Errorf("Classify(%d, %d) feast = %v high = %v, want %v %v",
					tt.month, tt.day, info.IsFeastDay, info.IsHighSabbath, tt.wantFeast, tt.wantHigh)
			}
			if !strings.Contains(info.Name, tt.wantName) {
				t.Errorf("Classify(%d, %d) name = %q, want it to mention %q", tt.month, tt.day, info.Name, tt.wantName)
			}
			if info.IsSabbath() != tt.wantSabbath {
				t.Errorf("Classify(%d, %d) sabbath = %v, want %v", tt.month, tt.day, info.IsSabbath(), tt.wantSabbath)
			}
		})
	}
}

func TestClassifyHanukkahBranches(t *testing.T) {
	tests := []struct {
		prevLength int
		day        int
		want       string
	}{
		{28, 1, "5th day of Hanukkah"},
		{28, 4, "8th day of Hanukkah"},
		{29, 1, "6th day of Hanukkah"},
		{29, 3, "8th day of Hanukkah"},
		{29, 4, ""},
		{30, 1, "7th day of Hanukkah"},
		{30, 2, "8th day of Hanukkah"},
		{30, 3, ""},
	}

	for _, tt := range tests {
		info, err := Classify(10, tt.day, 2, tt.prevLength)
		if err != nil {
			t.Fatalf("Classify(10, %d, prev %d) error = %v", tt.day, tt.prevLength, err)
		}
		if info.Name != tt.want {
			t.Errorf("Classify(10, %d, prev %d) = %q, want %q", tt.day, tt.prevLength, info.Name, tt.want)
		}
		if info.IsHighSabbath {
			t.Errorf("Classify(10, %d, prev %d) is a high Sabbath, want minor feast", tt.day, tt.prevLength)
		}
	}
}

func TestClassifyHanukkahUnknownLength(t *testing.T) {
	info, err := Classify(10, 2, 3, 0)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if info.IsFeastDay || len(info.Undetermined) != 1 || info.Undetermined[0] != hanukkahName {
		t.Errorf("Classify(10, 2, unknown) = %+v, want undetermined Hanukkah", info)
	}
}

func TestClassifyFirstfruits(t *testing.T) {
	// 1/15 on the 1st day of the week puts Firstfruits a full week later.
	tests := []struct {
		name     string
		day      int
		weekday  Weekday
		wantName string
		wantOmer int
	}{
		{"15th on 1st day", 22, 1, "Firstfruits", 1},
		{"15th on 7th day", 16, 1, "2nd day of Unleavened Bread/Firstfruits", 1},
		{"15th on 4th day", 19, 1, "5th day of Unleavened Bread/Firstfruits", 1},
		{"day after Firstfruits", 20, 2, "6th day of Unleavened Bread", 2},
		{"before Firstfruits", 18, 7, "4th day of Unleavened Bread", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Classify(1, tt.day, tt.weekday, 30)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if info.Name != tt.wantName || info.OmerDay != tt.wantOmer {
				t.Errorf("Classify(1, %d, %v) = %q omer %d, want %q omer %d",
					tt.day, tt.weekday, info.Name, info.OmerDay, tt.wantName, tt.wantOmer)
			}
		})
	}
}

func TestClassifyFeastOfWeeks(t *testing.T) {
	// 6015: month 1 began 2015-03-21; 2015-05-30 evening is year day 70,
	// the 50th day from Firstfruits on year day 21.
	info, err := ClassifyDay(DayQuery{Month: 3, Day: 12, Weekday: 1, PrevMonthLength: 29, YearDay: 70})
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if info.Name != weeksName || !info.IsHighSabbath || info.OmerDay != 0 {
		t.Errorf("ClassifyDay() = %+v, want high Sabbath %q", info, weeksName)
	}

	counting, err := ClassifyDay(DayQuery{Month: 3, Day: 11, Weekday: 7, PrevMonthLength: 29, YearDay: 69})
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if counting.OmerDay != 49 || counting.IsFeastDay {
		t.Errorf("ClassifyDay() omer = %d feast = %v, want 49 and no feast", counting.OmerDay, counting.IsFeastDay)
	}

	unknown, err := Classify(2, 20, 3, 30)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(unknown.Undetermined) != 1 || unknown.Undetermined[0] != weeksName {
		t.Errorf("Classify(2, 20) undetermined = %v, want [%s]", unknown.Undetermined, weeksName)
	}
}

func TestClassifyFeastOfWeeksWindow(t *testing.T) {
	tests := []struct {
		month            int
		day              int
		wantUndetermined bool
	}{
		{2, 29, true},
		{3, 1, true},
		{3, 13, true},
		{3, 14, false},
		{3, 15, false},
		{3, 16, false},
		{4, 1, false},
	}

	for _, tt := range tests {
		info, err := Classify(tt.month, tt.day, 3, 29)
		if err != nil {
			t.Fatalf("Classify(%d, %d) error = %v", tt.month, tt.day, err)
		}
		got := len(info.Undetermined) == 1 && info.Undetermined[0] == weeksName
		if got != tt.wantUndetermined {
			t.Errorf("Classify(%d, %d) undetermined = %v, want Feast of Weeks undetermined %v",
				tt.month, tt.day, info.Undetermined, tt.wantUndetermined)
		}
	}

	// Firstfruits on 1/22 with two 29-day months puts the 50th day on 3/13.
	info, err := ClassifyDay(DayQuery{Month: 3, Day: 13, Weekday: 1, PrevMonthLength: 29, YearDay: 70})
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if info.Name != weeksName {
		t.Errorf("ClassifyDay(3, 13) name = %q, want %q", info.Name, weeksName)
	}
}

func TestClassifyInputRange(t *testing.T) {
	tests := []struct {
		name       string
		month      int
		day        int
		weekday    Weekday
		prevLength int
		field      string
	}{
		{"month zero", 0, 1, 1, 0, "month"},
		{"month fourteen", 14, 1, 1, 0, "month"},
		{"day zero", 1, 0, 1, 0, "day"},
		{"day thirty one", 1, 31, 1, 0, "day"},
		{"weekday eight", 1, 1, 8, 0, "weekday"},
		{"previous month too long", 10, 1, 1, 31, "previous month length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.month, tt.day, tt.weekday, tt.prevLength)

			var rangeErr *ledger.InputRangeError
			if !errors.As(err, &rangeErr) || rangeErr.Field != tt.field {
				t.Fatalf("Classify() error = %v, want InputRangeError for %s", err, tt.field)
			}
			if !errors.Is(err, ledger.ErrInputRange) {
				t.Errorf("Classify() error = %v, want ErrInputRange", err)
			}
		})
	}
}

func TestAmbiguousFeastSearchErrorIsInternal(t *testing.T) {
	var err error = &AmbiguousFeastSearchError{Feast: firstfruitsName, Month: 1, Day: 15, Window: firstfruitsWindow}

	if !errors.Is(err, ErrAmbiguousFeastSearch) || !errors.Is(err, ErrInternal) {
		t.Errorf("error %v is not tagged internal", err)
	}
	if !strings.Contains(err.Error(), "7 days") {
		t.Errorf("Error() = %q, want the search window", err.Error())
	}
}
