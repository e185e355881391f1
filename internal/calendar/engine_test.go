package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/ledger"
)

// fakeOracle sets the sun at 17:00 local and reports a fixed moon age,
// overridden per local date by phases
type fakeOracle struct {
	phase  float64
	phases map[string]float64
}

func (o fakeOracle) SunStatus(at time.Time, loc astro.Location) (astro.SunInfo, error) {
	local := at.In(loc.TZ)
	rise := time.Date(local.Year(), local.Month(), local.Day(), 6, 30, 0, 0, loc.TZ)
	set := time.Date(local.Year(), local.Month(), local.Day(), 17, 0, 0, 0, loc.TZ)
	return astro.SunInfo{
		Sunrise:  rise,
		Sunset:   set,
		HasRisen: !local.Before(rise),
		HasSet:   !local.Before(set),
	}, nil
}

func (o fakeOracle) MoonPhase(at time.Time, loc astro.Location) float64 {
	if p, ok := o.phases[at.In(loc.TZ).Format("2006-01-02")]; ok {
		return p
	}
	return o.phase
}

type fakeStore struct {
	snapshot *ledger.Snapshot
	outdated bool
	err      error
}

func (s *fakeStore) Snapshot() *ledger.Snapshot {
	return s.snapshot
}

func (s *fakeStore) EnsureFresh(ctx context.Context, moonAge float64) (*ledger.Snapshot, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return s.snapshot, s.outdated, nil
}

func newTestEngine(t *testing.T, store LedgerStore, now time.Time) (*Engine, astro.Location) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	jerusalem, err := astro.Lookup("Jerusalem")
	require.NoError(t, err)
	return NewEngine(store, fakeOracle{phase: 14}, logger, WithClock(func() time.Time { return now })), jerusalem
}

func baselineStore(t *testing.T) *fakeStore {
	return &fakeStore{snapshot: &ledger.Snapshot{Ledger: baselineLedger(t), Cached: true}}
}

func TestEngineReferenceDays(t *testing.T) {
	engine, jerusalem := newTestEngine(t, baselineStore(t), time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		civil       string
		wantYear    int
		wantMonth   int
		wantDay     int
		wantWeekday string
		wantSabbath bool
		wantFeast   bool
		wantName    string
	}{
		{"2002-09-08", 6002, 7, 1, "2nd", true, true, "Feast of Trumpets"},
		{"2007-05-18", 6007, 3, 2, "7th", true, false, ""},
		{"2011-10-08", 6011, 7, 10, "1st", true, true, "Day of Atonement"},
		{"2012-12-16", 6012, 10, 3, "2nd", false, true, "8th day of Hanukkah"},
		{"2013-03-13", 6013, 1, 1, "5th", false, true, "Head of the Year"},
		{"2015-05-30", 6015, 3, 12, "1st", true, true, "Feast of Weeks"},
		{"2016-04-30", 6016, 1, 22, "1st", false, true, "Firstfruits"},
		{"2017-01-01", 6016, 10, 3, "2nd", false, false, ""},
		{"2017-02-17", 6016, 11, 20, "7th", true, false, ""},
		{"2017-12-30", 6017, 10, 11, "1st", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.civil, func(t *testing.T) {
			day, err := time.ParseInLocation("2006-01-02", tt.civil, jerusalem.TZ)
			require.NoError(t, err)
			at := day.Add(22 * time.Hour)

			date, err := engine.At(context.Background(), jerusalem, at)
			require.NoError(t, err)

			assert.Equal(t, tt.wantYear, date.Year)
			assert.Equal(t, tt.wantMonth, date.Month)
			assert.Equal(t, tt.wantDay, date.Day)
			assert.Equal(t, tt.wantWeekday, date.Weekday.String())
			assert.Equal(t, tt.wantSabbath, date.IsSabbath())
			assert.Equal(t, tt.wantFeast, date.Feast.IsFeastDay)
			assert.Equal(t, tt.wantName, date.Feast.Name)
			assert.True(t, date.Sun.HasSet)
		})
	}
}

func TestEngineEndToEnd(t *testing.T) {
	engine, jerusalem := newTestEngine(t, baselineStore(t), time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	at := time.Date(2017, 12, 30, 22, 0, 0, 0, jerusalem.TZ)

	date, err := engine.At(context.Background(), jerusalem, at)
	require.NoError(t, err)

	assert.Equal(t, "6017-10-11", date.String())
	assert.Equal(t, "10th", date.MonthName())
	assert.Equal(t, "Tevet", date.TraditionalMonthName())
	assert.Equal(t, ledger.Observed, date.Confidence)
	assert.Equal(t, 0, date.MonthLength)
	assert.Nil(t, date.AvivBarley)
	assert.Empty(t, date.Warnings)

	again, err := engine.At(context.Background(), jerusalem, at)
	require.NoError(t, err)
	assert.Equal(t, date, again)
}

func TestEngineConfidencePropagates(t *testing.T) {
	l, err := ledger.New(
		monthRecord(6017, 10, civil(2017, 12, 20), ledger.Observed),
		monthRecord(6017, 11, civil(2018, 1, 18), ledger.Estimated),
	)
	require.NoError(t, err)
	store := &fakeStore{snapshot: &ledger.Snapshot{Ledger: l, Cached: true}}
	engine, jerusalem := newTestEngine(t, store, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	date, err := engine.At(context.Background(), jerusalem, time.Date(2018, 1, 20, 12, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, "6017-11-02", date.String())
	assert.Equal(t, ledger.Estimated, date.Confidence)
	assert.Equal(t, 0, date.MonthLength)

	date, err = engine.At(context.Background(), jerusalem, time.Date(2018, 1, 10, 12, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, "6017-10-21", date.String())
	assert.Equal(t, ledger.Observed, date.Confidence)
	assert.Equal(t, 29, date.MonthLength)
}

func TestEngineSightedMonth(t *testing.T) {
	engine, jerusalem := newTestEngine(t, baselineStore(t), time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	// 6009-03 began at sunset on 2009-05-25.
	date, err := engine.At(context.Background(), jerusalem, time.Date(2009, 6, 1, 22, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)

	assert.Equal(t, "6009-03-08", date.String())
	assert.Equal(t, "3rd", date.Weekday.String())
	assert.Equal(t, ledger.Observed, date.Confidence)
	assert.Equal(t, 29, date.MonthLength)
	assert.False(t, date.Feast.IsFeastDay)

	date, err = engine.At(context.Background(), jerusalem, time.Date(2012, 11, 20, 12, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, 9, date.Month)
	assert.Equal(t, ledger.Observed, date.Confidence)
	assert.Equal(t, 29, date.MonthLength)
}

func TestEngineRevalidatesAfterShortMonth(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	jerusalem, err := astro.Lookup("Jerusalem")
	require.NoError(t, err)

	// 6005-11 lasted 28 days, so on 2006-01-31 both it and 6005-12 are open
	// in the same civil month. An old moon at the query steps the tie-break
	// back to 6005-11; being outside the confident window, it is moved on.
	oracle := fakeOracle{phase: 14, phases: map[string]float64{
		"2006-01-30": 0.5,
		"2006-01-31": 28,
	}}
	engine := NewEngine(baselineStore(t), oracle, logger,
		WithClock(func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }))

	date, err := engine.At(context.Background(), jerusalem, time.Date(2006, 1, 31, 12, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, "6005-12-01", date.String())
	assert.Equal(t, "3rd", date.Weekday.String())
	assert.Equal(t, 30, date.MonthLength)

	// Inside the confident window the tie-break result stands.
	oracle.phases["2006-01-31"] = 26
	engine = NewEngine(baselineStore(t), oracle, logger,
		WithClock(func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }))

	date, err = engine.At(context.Background(), jerusalem, time.Date(2006, 1, 31, 12, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, "6005-11-29", date.String())
}

func TestEngineAnomalyAndBarley(t *testing.T) {
	barley := true
	store := baselineStore(t)
	store.snapshot.AvivBarley = &barley
	engine, jerusalem := newTestEngine(t, store, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	date, err := engine.At(context.Background(), jerusalem, time.Date(2006, 2, 5, 22, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)

	assert.Equal(t, "6005-12-07", date.String())
	require.NotNil(t, date.AvivBarley)
	assert.True(t, *date.AvivBarley)
	require.Len(t, date.Warnings, 1)
	assert.Contains(t, date.Warnings[0], "28 days")
}

func TestEngineNow(t *testing.T) {
	jerusalemZone, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	now := time.Date(2017, 12, 30, 22, 0, 0, 0, jerusalemZone)

	t.Run("fresh ledger", func(t *testing.T) {
		engine, jerusalem := newTestEngine(t, baselineStore(t), now)

		date, err := engine.Now(context.Background(), jerusalem)
		require.NoError(t, err)
		assert.Equal(t, "6017-10-11", date.String())
		assert.Empty(t, date.Warnings)
	})

	t.Run("outdated cache", func(t *testing.T) {
		store := baselineStore(t)
		store.outdated = true
		engine, jerusalem := newTestEngine(t, store, now)

		date, err := engine.Now(context.Background(), jerusalem)
		require.NoError(t, err)
		assert.Contains(t, date.Warnings, outdatedWarning)
	})

	t.Run("no ledger available", func(t *testing.T) {
		store := baselineStore(t)
		store.err = ledger.ErrDataUnavailable
		engine, jerusalem := newTestEngine(t, store, now)

		_, err := engine.Now(context.Background(), jerusalem)
		assert.ErrorIs(t, err, ledger.ErrDataUnavailable)
	})
}

func TestEngineAtWithoutFeed(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	records, err := ledger.Baseline()
	require.NoError(t, err)
	store, err := ledger.NewStore(records, nil, nil, logger)
	require.NoError(t, err)

	engine, jerusalem := newTestEngine(t, store, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	date, err := engine.At(context.Background(), jerusalem, time.Date(2017, 12, 30, 22, 0, 0, 0, jerusalem.TZ))
	require.NoError(t, err)
	assert.Equal(t, "6017-10-11", date.String())
	assert.Contains(t, date.Warnings, baselineOnlyWarning)

	_, err = engine.Now(context.Background(), jerusalem)
	assert.ErrorIs(t, err, ledger.ErrDataUnavailable)
}

func TestEngineNoCoverage(t *testing.T) {
	engine, jerusalem := newTestEngine(t, baselineStore(t), time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	_, err := engine.At(context.Background(), jerusalem, time.Date(2020, 6, 1, 12, 0, 0, 0, jerusalem.TZ))
	assert.ErrorIs(t, err, ErrNoCoverage)
}
