package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unixMillis(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestLeapSecondTable(t *testing.T) {
	table := LeapSeconds()
	require.Len(t, table, 27)

	assert.Equal(t, unixMillis(1972, time.July, 1), table[0])
	assert.Equal(t, unixMillis(2017, time.January, 1), table[len(table)-1])

	for i := 1; i < len(table); i++ {
		assert.Less(t, table[i-1], table[i], "entry %d", i)
	}
}

func TestNumLeapSeconds(t *testing.T) {
	first := unixMillis(1972, time.July, 1)

	tests := []struct {
		name  string
		civil int64
		want  int
	}{
		{"unix epoch", 0, 0},
		{"before first entry", first - 1, 0},
		{"exactly first entry", first, 1},
		{"after first entry", first + 1, 1},
		{"2000", unixMillis(2000, time.January, 1), 22},
		{"exactly last entry", unixMillis(2017, time.January, 1), 27},
		{"2025", unixMillis(2025, time.June, 1), 27},
		{"far past", -1 << 50, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, NumLeapSeconds(test.civil))
		})
	}
}

func TestToInternal(t *testing.T) {
	// every entry lies after 1970, so the unix epoch carries no leap seconds
	assert.Equal(t, UnixEpochOffset, ToInternal(0))
	assert.Equal(t, UnixEpochOffset+1, ToInternal(1))

	now := unixMillis(2025, time.June, 1)
	assert.Equal(t, now+27000+UnixEpochOffset, ToInternal(now))
}

func TestToInternalCorrectionSteps(t *testing.T) {
	for _, entry := range LeapSeconds() {
		before := ToInternal(entry-1) - (entry - 1)
		at := ToInternal(entry) - entry
		assert.Equal(t, int64(1000), at-before, "correction step at %d", entry)
		assert.Equal(t, int64(1001), ToInternal(entry)-ToInternal(entry-1))
	}
}

func TestToInternalMonotonic(t *testing.T) {
	start := unixMillis(1971, time.January, 1)
	end := unixMillis(2018, time.January, 1)
	step := int64(7 * 24 * time.Hour / time.Millisecond)

	prev := ToInternal(start)
	prevCorrection := prev - start
	for civil := start + step; civil < end; civil += step {
		internal := ToInternal(civil)
		correction := internal - civil
		assert.Greater(t, internal, prev)
		assert.GreaterOrEqual(t, correction, prevCorrection)
		prev, prevCorrection = internal, correction
	}
}

func TestToCivil(t *testing.T) {
	civils := []int64{
		0,
		-86400000,
		unixMillis(1972, time.June, 30),
		unixMillis(1999, time.March, 3) + 12345,
		unixMillis(2025, time.June, 1),
	}
	for _, entry := range LeapSeconds() {
		civils = append(civils, entry-1, entry, entry+1)
	}

	for _, civil := range civils {
		assert.Equal(t, civil, ToCivil(ToInternal(civil)), "civil %d", civil)
	}
}

func TestToCivilInsideLeapSecond(t *testing.T) {
	entry := LeapSeconds()[0]
	before := ToInternal(entry - 1)

	// the 1000 internal milliseconds of the inserted second have no civil
	// counterpart and map to the entry itself
	for internal := before + 1; internal <= before+1000; internal += 250 {
		assert.Equal(t, entry, ToCivil(internal))
	}
}
