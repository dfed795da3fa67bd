package trend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultTime_IsTooOld(t *testing.T) {
	today := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	rt := NewResultTime(WithToday(func() time.Time { return today }), WithTimeLocation(time.UTC))

	tests := []struct {
		name     string
		dayCount int
		runTime  time.Time
		want     bool
	}{
		{"day count undefined", 0, today.AddDate(-5, 0, 0), false},
		{"same day", 1, today.Add(-11 * time.Hour), false},
		{"previous day is one day old", 1, today.Add(-13 * time.Hour), true},
		{"inside window", 3, today.AddDate(0, 0, -2), false},
		{"boundary is too old", 3, today.AddDate(0, 0, -3), true},
		{"older than window", 3, today.AddDate(0, 0, -30), true},
		{"future run counts absolute days", 2, today.AddDate(0, 0, 2), true},
		{"future run inside window", 2, today.AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := windowConfig{dayCount: tt.dayCount}
			assert.Equal(t, tt.want, rt.IsTooOld(cfg, run(1, tt.runTime)))
		})
	}
}

func TestResultTime_UsesCalendarDays(t *testing.T) {
	// Five hours apart but on different calendar dates.
	today := time.Date(2024, time.March, 10, 1, 0, 0, 0, time.UTC)
	rt := NewResultTime(WithToday(func() time.Time { return today }), WithTimeLocation(time.UTC))

	assert.True(t, rt.IsTooOld(windowConfig{dayCount: 1}, run(1, today.Add(-5*time.Hour))))

	// Twenty hours apart on the same calendar date.
	today = time.Date(2024, time.March, 10, 22, 0, 0, 0, time.UTC)
	assert.False(t, rt.IsTooOld(windowConfig{dayCount: 1}, run(1, today.Add(-20*time.Hour))))
}

func TestResultTime_Location(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*3600)
	today := time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC) // March 11 in UTC+5
	runAt := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)  // March 10 in both

	utc := NewResultTime(WithToday(func() time.Time { return today }), WithTimeLocation(time.UTC))
	shifted := NewResultTime(WithToday(func() time.Time { return today }), WithTimeLocation(east))

	cfg := windowConfig{dayCount: 1}
	assert.False(t, utc.IsTooOld(cfg, run(1, runAt)))
	assert.True(t, shifted.IsTooOld(cfg, run(1, runAt)))
}

func TestResultTime_WithToDate(t *testing.T) {
	rt := NewResultTime(WithTimeLocation(time.UTC), WithToDate(Date{2024, time.March, 10}))

	assert.False(t, rt.IsTooOld(windowConfig{dayCount: 2}, run(1, time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC))))
	assert.True(t, rt.IsTooOld(windowConfig{dayCount: 2}, run(1, time.Date(2024, time.March, 8, 0, 1, 0, 0, time.UTC))))
}

func TestDaysBetween(t *testing.T) {
	a := Date{2024, time.February, 28}
	assert.Equal(t, 2, DaysBetween(a, Date{2024, time.March, 1}))
	assert.Equal(t, -2, DaysBetween(Date{2024, time.March, 1}, a))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 366, DaysBetween(Date{2024, time.January, 1}, Date{2025, time.January, 1}))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	assert.NoError(t, err)
	assert.Equal(t, Date{2024, time.March, 9}, d)
	assert.Equal(t, "2024-03-09", d.String())

	_, err = ParseDate("09.03.2024")
	assert.Error(t, err)
}
