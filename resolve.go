package lukashian

import (
	"github.com/subtlepseudonym/lukashian/solar"
)

// Resolver maps instants to calendar dates
type Resolver interface {
	Resolve(instant int64) (Date, error)
}

// Resolve maps an internal instant to its Date.
//
// The last millisecond of a day belongs to that day, so an instant
// exactly on a day boundary resolves to beep 9999 of the completed day.
// A day belongs to the year in which it begins; the remainder of the
// day during which a solstice falls is the last day of the old year.
func (t *Tables) Resolve(instant int64) (Date, error) {
	if t == nil || len(t.days) == 0 {
		return Date{}, ErrTableNotBuilt
	}

	if instant < t.First() {
		return Date{}, t.outOfRange(BelowRange, instant)
	}
	if instant > t.Last() {
		return Date{}, t.outOfRange(AboveRange, instant)
	}

	day := search(t.days, instant)
	start := t.dayStart(day)
	end := t.days[day]

	yearIndex := search(t.years, start)
	if yearIndex == len(t.years) {
		return Date{}, t.yearOutOfRange(AboveRange, instant)
	}
	yearStart := t.yearEnd(yearIndex-1) + 1
	if start < yearStart {
		// the day began before the first year in the table
		return Date{}, t.yearOutOfRange(BelowRange, instant)
	}

	first, err := t.firstDayOfYear(yearStart, instant)
	if err != nil {
		return Date{}, err
	}

	return Date{
		Year: t.rng.MinYear + yearIndex,
		Day:  day - first + 1,
		Beep: beep(instant, start, end),
	}, nil
}

// ResolveCivil maps unix milliseconds to its Date
func (t *Tables) ResolveCivil(civilMillis int64) (Date, error) {
	return t.Resolve(solar.ToInternal(civilMillis))
}

// firstDayOfYear returns the index of the first day that begins within
// the year. If the year began partway through a day, that day belongs
// to the previous year.
func (t *Tables) firstDayOfYear(yearStart, instant int64) (int, error) {
	if yearStart <= t.dayFloor {
		return 0, t.outOfRange(BelowRange, instant)
	}

	i := search(t.days, yearStart)
	if t.dayStart(i) < yearStart {
		i++
	}
	return i, nil
}

// beep returns how many ten-thousandths of the day [start, end] have
// fully elapsed at instant
func beep(instant, start, end int64) int {
	elapsed := instant - start
	length := end - start + 1
	return int(elapsed * BeepsPerDay / length)
}

// NextDayBoundary returns the first day boundary strictly after the
// internal instant. The following day begins one millisecond later.
func (t *Tables) NextDayBoundary(instant int64) (int64, error) {
	if t == nil || len(t.days) == 0 {
		return 0, ErrTableNotBuilt
	}
	if instant < t.dayFloor {
		return 0, t.outOfRange(BelowRange, instant)
	}

	i := mostRecent(t.days, instant) + 1
	if i >= len(t.days) {
		return 0, t.outOfRange(AboveRange, instant)
	}
	return t.days[i], nil
}
