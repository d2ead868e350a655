package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarStart(t *testing.T) {
	assert.Equal(t, int64(25657998816009), CalendarStart)
	assert.Equal(t, int64(0), YearEndInternal(0))
}

func TestYearEnd(t *testing.T) {
	tests := []struct {
		year int
		want int64
	}{
		{1, 31557141528},
		{3899, 123040647943092},
		{4899, 154597631834413},
		{4900, 154629188823132},
		{5900, 186186167108351},
		{5924, 186943534078563},
		{5925, 186975090642971},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, YearEndInternal(test.year), "year %d", test.year)
	}
}

func TestYearEndMatchesDecemberSolstice(t *testing.T) {
	solstices := map[int]time.Time{
		5924: time.Date(2024, time.December, 21, 9, 20, 0, 0, time.UTC),
		5925: time.Date(2025, time.December, 21, 15, 3, 0, 0, time.UTC),
	}

	for year, want := range solstices {
		civil := time.UnixMilli(ToCivil(YearEndInternal(year))).UTC()
		assert.WithinDuration(t, want, civil, 2*time.Minute, "year %d", year)
	}
}

func TestYearEndMonotonic(t *testing.T) {
	prev := YearEndInternal(0)
	for year := 1; year <= 7000; year++ {
		end := YearEndInternal(year)
		assert.Greater(t, end, prev, "year %d", year)

		length := float64(end-prev) / MillisPerDay
		assert.InDelta(t, TropicalYear, length, 0.1, "year %d", year)
		prev = end
	}
}

func TestYearEndRaw(t *testing.T) {
	tests := map[int]int64{
		0:    25657998816009,
		1:    25689555957537,
		4899: 180255630650422,
		4900: 180287187639141,
		5925: 212633089458980,
		6500: 230778346916313,
	}

	for year, want := range tests {
		assert.Equal(t, want, YearEnd(year), "year %d", year)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{-0.5, 0},
		{-1.5, -1},
		{-1.6, -2},
		{86399901700046.5, 86399901700047},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, roundHalfUp(test.in), "round %v", test.in)
	}
}
