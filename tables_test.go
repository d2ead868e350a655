package lukashian

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func civil(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

var (
	tables2025     *Tables
	tables2025Once sync.Once
)

// build2025 returns tables planned for the civil year 2025
func build2025(t *testing.T) *Tables {
	t.Helper()
	tables2025Once.Do(func() {
		r, err := Plan(civil(2025, time.January, 1, 0), civil(2025, time.December, 31, 0), DefaultBuffer)
		require.NoError(t, err)

		tables2025, err = (&Builder{}).Build(context.Background(), r)
		require.NoError(t, err)
	})
	require.NotNil(t, tables2025)
	return tables2025
}

// smallTables has six 100ms days and a year boundary partway through
// the third day
func smallTables(t *testing.T) *Tables {
	t.Helper()
	tbl, err := NewTables(
		Range{MinYear: 1, MaxYear: 2, MinDay: 1, MaxDay: 6},
		[]int64{250, 1000},
		[]int64{100, 200, 300, 400, 500, 600},
		0,
	)
	require.NoError(t, err)
	return tbl
}

func TestRangeValidate(t *testing.T) {
	tests := []struct {
		name  string
		r     Range
		valid bool
	}{
		{"valid", Range{MinYear: 1, MaxYear: 1, MinDay: 1, MaxDay: 1}, true},
		{"years reversed", Range{MinYear: 2, MaxYear: 1, MinDay: 1, MaxDay: 1}, false},
		{"days reversed", Range{MinYear: 1, MaxYear: 1, MinDay: 5, MaxDay: 4}, false},
		{"day zero", Range{MinYear: 1, MaxYear: 1, MinDay: 0, MaxDay: 4}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.r.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRange)
			}
		})
	}
}

func TestNewTablesRejectsMalformed(t *testing.T) {
	r := Range{MinYear: 1, MaxYear: 2, MinDay: 1, MaxDay: 3}

	tests := []struct {
		name  string
		years []int64
		days  []int64
		floor int64
	}{
		{"short years", []int64{10}, []int64{1, 2, 3}, 0},
		{"long days", []int64{10, 20}, []int64{1, 2, 3, 4}, 0},
		{"duplicate day", []int64{10, 20}, []int64{1, 2, 2}, 0},
		{"decreasing year", []int64{20, 10}, []int64{1, 2, 3}, 0},
		{"floor at day 1", []int64{10, 20}, []int64{5, 6, 7}, 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewTables(r, test.years, test.days, test.floor)
			assert.ErrorIs(t, err, ErrMalformedTables)
		})
	}
}

func TestNewTablesFloorMustPrecedeDays(t *testing.T) {
	r := Range{MinYear: 1, MaxYear: 1, MinDay: 2, MaxDay: 3}

	_, err := NewTables(r, []int64{10}, []int64{5, 6}, 5)
	assert.ErrorIs(t, err, ErrMalformedTables)

	tbl, err := NewTables(r, []int64{10}, []int64{5, 6}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tbl.DayFloor())
}

func TestTablesAccessors(t *testing.T) {
	tbl := smallTables(t)

	assert.Equal(t, int64(100), tbl.First())
	assert.Equal(t, int64(600), tbl.Last())

	end, ok := tbl.YearEnd(2)
	assert.True(t, ok)
	assert.Equal(t, int64(1000), end)
	_, ok = tbl.YearEnd(3)
	assert.False(t, ok)

	end, ok = tbl.DayEnd(4)
	assert.True(t, ok)
	assert.Equal(t, int64(400), end)
	_, ok = tbl.DayEnd(0)
	assert.False(t, ok)

	start, ok := tbl.DayStart(1)
	assert.True(t, ok)
	assert.Equal(t, int64(1), start)
	start, ok = tbl.DayStart(4)
	assert.True(t, ok)
	assert.Equal(t, int64(301), start)
	_, ok = tbl.DayStart(7)
	assert.False(t, ok)

	assert.True(t, tbl.Covers(100))
	assert.True(t, tbl.Covers(600))
	assert.False(t, tbl.Covers(99))
	assert.False(t, tbl.Covers(601))

	// returned slices are copies
	days := tbl.Days()
	days[0] = 0
	assert.Equal(t, int64(100), tbl.First())
}

func TestTablesEqual(t *testing.T) {
	a := smallTables(t)
	b := smallTables(t)
	assert.True(t, a.Equal(b))

	c, err := NewTables(a.Range(), a.Years(), []int64{100, 200, 300, 400, 500, 601}, 0)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
