package lukashian

import (
	"fmt"
	"sort"

	"github.com/subtlepseudonym/lukashian/solar"
)

// Range is an inclusive span of years and of days. Day 1 is the first
// day of the calendar.
type Range struct {
	MinYear int `json:"minYear"`
	MaxYear int `json:"maxYear"`
	MinDay  int `json:"minDay"`
	MaxDay  int `json:"maxDay"`
}

func (r Range) Validate() error {
	if r.MaxYear < r.MinYear {
		return fmt.Errorf("max year %d before min year %d: %w", r.MaxYear, r.MinYear, ErrInvalidRange)
	}
	if r.MinDay < 1 {
		return fmt.Errorf("min day %d: %w", r.MinDay, ErrInvalidRange)
	}
	if r.MaxDay < r.MinDay {
		return fmt.Errorf("max day %d before min day %d: %w", r.MaxDay, r.MinDay, ErrInvalidRange)
	}
	return nil
}

func (r Range) Years() int {
	return r.MaxYear - r.MinYear + 1
}

func (r Range) Days() int {
	return r.MaxDay - r.MinDay + 1
}

func (r Range) String() string {
	return fmt.Sprintf("years %d-%d, days %d-%d", r.MinYear, r.MaxYear, r.MinDay, r.MaxDay)
}

// Tables holds the year and day boundaries of a Range as internal
// instants. Tables are immutable once built; a wider range is a new
// value.
type Tables struct {
	rng Range

	// years[i] is the last millisecond of year rng.MinYear+i
	years []int64

	// days[i] is the last millisecond of day rng.MinDay+i
	days []int64

	// dayFloor is the last millisecond of day rng.MinDay-1, or 0 when
	// the table starts at day 1
	dayFloor int64
}

// NewTables checks and copies boundaries into a Tables value. It is how
// tables built elsewhere are loaded back.
func NewTables(r Range, years, days []int64, dayFloor int64) (*Tables, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(years) != r.Years() {
		return nil, fmt.Errorf("%d year boundaries for %d years: %w", len(years), r.Years(), ErrMalformedTables)
	}
	if len(days) != r.Days() {
		return nil, fmt.Errorf("%d day boundaries for %d days: %w", len(days), r.Days(), ErrMalformedTables)
	}
	if r.MinDay == 1 && dayFloor != 0 {
		return nil, fmt.Errorf("day floor %d for table starting at day 1: %w", dayFloor, ErrMalformedTables)
	}
	if err := checkIncreasing("year", years); err != nil {
		return nil, err
	}
	if err := checkIncreasing("day", append([]int64{dayFloor}, days...)); err != nil {
		return nil, err
	}

	return &Tables{
		rng:      r,
		years:    append([]int64(nil), years...),
		days:     append([]int64(nil), days...),
		dayFloor: dayFloor,
	}, nil
}

func checkIncreasing(kind string, boundaries []int64) error {
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return fmt.Errorf("%s boundary %d: %d not after %d: %w", kind, i, boundaries[i], boundaries[i-1], ErrMalformedTables)
		}
	}
	return nil
}

func (t *Tables) Range() Range {
	return t.rng
}

// Years returns a copy of the year boundaries
func (t *Tables) Years() []int64 {
	return append([]int64(nil), t.years...)
}

// Days returns a copy of the day boundaries
func (t *Tables) Days() []int64 {
	return append([]int64(nil), t.days...)
}

func (t *Tables) DayFloor() int64 {
	return t.dayFloor
}

// First is the earliest resolvable internal instant
func (t *Tables) First() int64 {
	return t.days[0]
}

// Last is the latest resolvable internal instant
func (t *Tables) Last() int64 {
	return t.days[len(t.days)-1]
}

// Covers reports whether the internal instant can be resolved
func (t *Tables) Covers(instant int64) bool {
	return t != nil && instant >= t.First() && instant <= t.Last()
}

// YearEnd returns the last millisecond of the year if it is in range
func (t *Tables) YearEnd(year int) (int64, bool) {
	i := year - t.rng.MinYear
	if i < 0 || i >= len(t.years) {
		return 0, false
	}
	return t.years[i], true
}

// DayEnd returns the last millisecond of the day if it is in range
func (t *Tables) DayEnd(day int) (int64, bool) {
	i := day - t.rng.MinDay
	if i < 0 || i >= len(t.days) {
		return 0, false
	}
	return t.days[i], true
}

// DayStart returns the first millisecond of the day if it is in range
func (t *Tables) DayStart(day int) (int64, bool) {
	i := day - t.rng.MinDay
	if i < 0 || i >= len(t.days) {
		return 0, false
	}
	return t.dayStart(i), true
}

// Equal reports whether both tables hold identical boundaries
func (t *Tables) Equal(other *Tables) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.rng != other.rng || t.dayFloor != other.dayFloor {
		return false
	}
	for i := range t.years {
		if t.years[i] != other.years[i] {
			return false
		}
	}
	for i := range t.days {
		if t.days[i] != other.days[i] {
			return false
		}
	}
	return true
}

// search returns the index of target in boundaries, or the index it
// would be inserted at. An exact match is the last millisecond of the
// period at that index, so either way the index names the period
// containing target.
func search(boundaries []int64, target int64) int {
	return sort.Search(len(boundaries), func(i int) bool {
		return boundaries[i] >= target
	})
}

// mostRecent returns the index of the last boundary at or before
// target, or -1 if there is none
func mostRecent(boundaries []int64, target int64) int {
	return sort.Search(len(boundaries), func(i int) bool {
		return boundaries[i] > target
	}) - 1
}

// dayStart returns the first millisecond of the day at index i
func (t *Tables) dayStart(i int) int64 {
	if i == 0 {
		return t.dayFloor + 1
	}
	return t.days[i-1] + 1
}

// yearEnd returns the last millisecond of the year at index i. The
// year before the table comes from the solstice model.
func (t *Tables) yearEnd(i int) int64 {
	if i < 0 {
		return solar.YearEndInternal(t.rng.MinYear + i)
	}
	return t.years[i]
}

func (t *Tables) outOfRange(side Side, instant int64) error {
	return &OutOfRangeError{
		Side:    side,
		Instant: instant,
		Min:     t.First(),
		Max:     t.Last(),
	}
}

// yearOutOfRange reports an instant whose day begins outside the years
// of the table. Min and Max bound the days that begin within them.
func (t *Tables) yearOutOfRange(side Side, instant int64) error {
	lo, hi := t.First(), t.Last()

	yearStart := t.yearEnd(-1) + 1
	if i := search(t.days, yearStart); i < len(t.days) {
		if t.dayStart(i) < yearStart {
			i++
		}
		if i < len(t.days) {
			lo = max(lo, t.dayStart(i))
		}
	}
	if j := search(t.days, t.years[len(t.years)-1]); j < len(t.days) {
		hi = t.days[j]
	}

	return &OutOfRangeError{
		Side:    side,
		Instant: instant,
		Min:     lo,
		Max:     hi,
	}
}
