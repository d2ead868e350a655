package lukashian

import (
	"fmt"

	"github.com/subtlepseudonym/lukashian/solar"
)

// Buffer widens a planned Range beyond the instants it must cover
type Buffer struct {
	Years int `json:"years" yaml:"years" toml:"years" validate:"gte=0"`
	Days  int `json:"days" yaml:"days" toml:"days" validate:"gte=1"`
}

// DefaultBuffer is one year and two days either side
var DefaultBuffer = Buffer{Years: 1, Days: 2}

func (b Buffer) validate() error {
	if b.Years < 0 {
		return fmt.Errorf("buffer years %d: %w", b.Years, ErrInvalidRange)
	}
	if b.Days < 1 {
		return fmt.Errorf("buffer days %d: %w", b.Days, ErrInvalidRange)
	}
	return nil
}

// Plan returns the Range whose tables resolve every civil instant in
// [start, end], both in unix milliseconds
func Plan(start, end int64, buf Buffer) (Range, error) {
	return PlanInternal(solar.ToInternal(start), solar.ToInternal(end), buf)
}

// PlanInternal is Plan for internal instants
func PlanInternal(start, end int64, buf Buffer) (Range, error) {
	if start > end {
		return Range{}, fmt.Errorf("start %d after end %d: %w", start, end, ErrInvalidRange)
	}
	if err := buf.validate(); err != nil {
		return Range{}, err
	}

	// A day belongs to the year it began in, and the day containing start
	// began less than two days before it. Planning from there keeps that
	// year and day in the tables whatever the buffer.
	lead := max(start-2*solar.MillisPerDay, 1)

	minYear := YearOf(lead) - buf.Years
	maxYear := YearOf(end) + buf.Years

	// the day table must reach back to the start of the first year so
	// day-of-year can be counted from it
	yearStart := solar.YearEndInternal(minYear-1) + 1
	minDay := min(containingDay(lead), containingDay(yearStart)) - buf.Days
	if minDay < 1 {
		minDay = 1
	}
	maxDay := containingDay(end) + buf.Days

	r := Range{
		MinYear: minYear,
		MaxYear: maxYear,
		MinDay:  minDay,
		MaxDay:  maxDay,
	}
	return r, r.Validate()
}

func containingDay(instant int64) int {
	return solar.ApproxDay(instant) + 1
}

// YearOf returns the year containing the internal instant, that is the
// year y with end(y-1) < instant <= end(y)
func YearOf(instant int64) int {
	year := int(float64(instant) / (solar.TropicalYear * solar.MillisPerDay))
	for solar.YearEndInternal(year-1) >= instant {
		year--
	}
	for solar.YearEndInternal(year) < instant {
		year++
	}
	return year
}
