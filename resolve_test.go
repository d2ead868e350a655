package lukashian

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtlepseudonym/lukashian/solar"
)

func TestResolve(t *testing.T) {
	tbl := smallTables(t)

	tests := []struct {
		name    string
		instant int64
		want    Date
	}{
		{"end of first day", 100, Date{Year: 1, Day: 1, Beep: 9900}},
		{"start of second day", 101, Date{Year: 1, Day: 2, Beep: 0}},
		{"middle of second day", 151, Date{Year: 1, Day: 2, Beep: 5000}},
		{"after solstice on the straddling day", 260, Date{Year: 1, Day: 3, Beep: 5900}},
		{"first day of the new year", 301, Date{Year: 2, Day: 1, Beep: 0}},
		{"last table millisecond", 600, Date{Year: 2, Day: 3, Beep: 9900}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			date, err := tbl.Resolve(test.instant)
			require.NoError(t, err)
			assert.Equal(t, test.want, date)
		})
	}
}

func TestResolveOutOfRange(t *testing.T) {
	tbl := smallTables(t)

	_, err := tbl.Resolve(99)
	require.ErrorIs(t, err, ErrOutOfRange)
	var oor *OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, BelowRange, oor.Side)
	assert.Equal(t, int64(99), oor.Instant)
	assert.Equal(t, int64(100), oor.Min)
	assert.Equal(t, int64(600), oor.Max)

	_, err = tbl.Resolve(601)
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, AboveRange, oor.Side)
	assert.Contains(t, err.Error(), "above range")
}

func TestResolveNilTables(t *testing.T) {
	var tbl *Tables
	_, err := tbl.Resolve(0)
	assert.ErrorIs(t, err, ErrTableNotBuilt)
}

func TestResolveBeepRange(t *testing.T) {
	tbl := build2025(t)
	days := tbl.Days()

	for i := 1; i < len(days); i += 37 {
		start, end := days[i-1]+1, days[i]
		if _, err := tbl.Resolve(end); err != nil {
			// began before the first table year
			continue
		}
		for _, instant := range []int64{start, start + 1, (start + end) / 2, end - 1, end} {
			date, err := tbl.Resolve(instant)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, date.Beep, 0)
			assert.Less(t, date.Beep, BeepsPerDay)
		}

		first, err := tbl.Resolve(start)
		require.NoError(t, err)
		assert.Equal(t, 0, first.Beep)

		last, err := tbl.Resolve(end)
		require.NoError(t, err)
		assert.Equal(t, 9999, last.Beep)
	}
}

func TestResolveCivil2025(t *testing.T) {
	tbl := build2025(t)

	tests := []struct {
		name  string
		civil int64
		year  int
		day   int
		beep  int
	}{
		{"new year's day", civil(2025, time.January, 1, 0), 5925, 11, 1203},
		{"march", civil(2025, time.March, 1, 0), 5925, 70, 1140},
		{"june noon", civil(2025, time.June, 1, 12), 5925, 162, 6241},
		{"june noon a year before", civil(2024, time.June, 1, 12), 5924, 162, 6241},
		{"after the 5924 solstice", civil(2023, time.December, 23, 0), 5924, 1, 1236},
		{"solstice day 5925", civil(2025, time.December, 21, 15), 5925, 365, 7489},
		{"first day of 5926", civil(2025, time.December, 22, 12), 5926, 1, 6236},
		{"january 5926", civil(2026, time.January, 2, 0), 5926, 12, 1200},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			date, err := tbl.ResolveCivil(test.civil)
			require.NoError(t, err)
			assert.Equal(t, Date{Year: test.year, Day: test.day, Beep: test.beep}, date)
		})
	}
}

func TestResolveSolsticeDayBelongsToOldYear(t *testing.T) {
	tbl := build2025(t)
	solstice := solar.YearEndInternal(5925)

	before, err := tbl.Resolve(solstice)
	require.NoError(t, err)
	after, err := tbl.Resolve(solstice + 1)
	require.NoError(t, err)

	assert.Equal(t, before.Year, after.Year)
	assert.Equal(t, before.Day, after.Day)
	assert.Equal(t, 5925, after.Year)

	next, err := tbl.NextDayBoundary(solstice)
	require.NoError(t, err)
	newYear, err := tbl.Resolve(next + 1)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 5926, Day: 1, Beep: 0}, newYear)
}

func TestResolveYearBeforeTable(t *testing.T) {
	tbl := build2025(t)

	// the table's first days began before year 5924 did
	_, err := tbl.ResolveCivil(civil(2023, time.December, 21, 12))
	var oor *OutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, BelowRange, oor.Side)
}

func TestResolveDayOfYearIncreases(t *testing.T) {
	tbl := build2025(t)
	days := tbl.Days()

	var prev Date
	for _, end := range days {
		date, err := tbl.Resolve(end)
		if err != nil {
			continue
		}
		if prev.Year == date.Year {
			assert.Equal(t, prev.Day+1, date.Day)
		} else if prev.Year != 0 {
			assert.Equal(t, prev.Year+1, date.Year)
			assert.Equal(t, 1, date.Day)
			assert.Contains(t, []int{365, 366}, prev.Day)
		}
		prev = date
	}
}

func TestNextDayBoundary(t *testing.T) {
	tbl := smallTables(t)

	tests := []struct {
		instant int64
		want    int64
	}{
		{0, 100},
		{50, 100},
		{100, 200},
		{101, 200},
		{599, 600},
	}
	for _, test := range tests {
		got, err := tbl.NextDayBoundary(test.instant)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "instant %d", test.instant)
	}

	_, err := tbl.NextDayBoundary(600)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNextDayBoundaryCivil(t *testing.T) {
	tbl := build2025(t)

	end, err := tbl.NextDayBoundary(solar.ToInternal(civil(2025, time.June, 1, 12)))
	require.NoError(t, err)

	// 2025-06-01T21:01:19.892Z
	assert.Equal(t, int64(1748811679892), solar.ToCivil(end+1))
}

func TestResolveOutsideTableYears(t *testing.T) {
	// one year whose start and end both fall inside the day table
	y1 := solar.YearEndInternal(1)
	tbl, err := NewTables(
		Range{MinYear: 2, MaxYear: 2, MinDay: 365, MaxDay: 368},
		[]int64{y1 + 150},
		[]int64{y1 - 100, y1 + 100, y1 + 200, y1 + 300},
		y1-200,
	)
	require.NoError(t, err)

	date, err := tbl.Resolve(y1 + 150)
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2, Day: 1, Beep: 4900}, date)

	var oor *OutOfRangeError

	// the day began in year 1
	_, err = tbl.Resolve(y1 + 50)
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, BelowRange, oor.Side)
	assert.Equal(t, y1+101, oor.Min)
	assert.Equal(t, y1+200, oor.Max)

	// the day began in year 3
	_, err = tbl.Resolve(y1 + 250)
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, AboveRange, oor.Side)
	assert.Greater(t, oor.Instant, oor.Max)
}
