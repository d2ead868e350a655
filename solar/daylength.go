package solar

import (
	"fmt"
	"math"
)

const (
	// CenturialIncrease is the lengthening of the mean solar day per
	// julian century, in nanoseconds
	CenturialIncrease int64 = 1700000

	// DayLengthAt5900 is the length of the mean solar day at year 5900
	// (2000 CE), in nanoseconds
	DayLengthAt5900 int64 = 86400002000000

	// DayLengthAtEpoch is the length of the first mean solar day of the
	// calendar, 59 centuries before year 5900
	DayLengthAtEpoch = DayLengthAt5900 - CenturialIncrease*59

	nanosPerMilli = 1000000
)

// dailyIncrease is the lengthening of the mean solar day per day, in
// nanoseconds
var dailyIncrease = float64(CenturialIncrease) / (100 * 365.25)

// DayLength returns the length in nanoseconds of the given mean solar
// day, rounded to the nearest nanosecond. Day 1 is the first day of
// the calendar.
func DayLength(day int) int64 {
	return roundHalfUp(float64(DayLengthAtEpoch) + dailyIncrease*float64(day-1))
}

// Clock is a running total of mean solar day lengths. It is kept as
// whole milliseconds plus a nanosecond remainder so the sum stays exact
// well past the range of an int64 of nanoseconds.
type Clock struct {
	day    int
	millis int64
	nanos  int64 // always in [0, nanosPerMilli)
}

// NewClock returns a Clock positioned at the end of day-1, ready for
// Advance to produce the end of day. This sums every preceding day
// length, so it is linear in day.
func NewClock(day int) (*Clock, error) {
	if day < 1 {
		return nil, fmt.Errorf("clock day %d: must be at least 1", day)
	}

	c := &Clock{}
	for c.day < day-1 {
		c.Advance()
	}
	return c, nil
}

// Advance adds the length of the next mean solar day and returns the
// end of that day in whole internal milliseconds
func (c *Clock) Advance() int64 {
	c.day++
	c.add(DayLength(c.day))
	return c.millis
}

func (c *Clock) add(nanos int64) {
	c.nanos += nanos
	c.millis += c.nanos / nanosPerMilli
	c.nanos %= nanosPerMilli
}

// Day returns the last day added to the running total
func (c *Clock) Day() int {
	return c.day
}

// Millis returns the end of the current day in whole internal
// milliseconds, truncating the nanosecond remainder
func (c *Clock) Millis() int64 {
	return c.millis
}

// Nanos returns the end of the current day as whole milliseconds and
// the nanoseconds past them
func (c *Clock) Nanos() (int64, int64) {
	return c.millis, c.nanos
}

// ApproxMeanEnd estimates the end of the given mean solar day in
// internal milliseconds using the closed form of the running total. It
// is used for planning only and can be off by a millisecond or so.
func ApproxMeanEnd(day int) float64 {
	d := float64(day)
	nanos := float64(DayLengthAtEpoch)*d + dailyIncrease*d*(d-1)/2
	return nanos / nanosPerMilli
}

// ApproxDay estimates how many whole mean solar days have elapsed at
// the internal instant, so the day containing it is ApproxDay+1. A
// handful of fixed point iterations over the mean day length model is
// enough; callers must check the answer against a built table.
func ApproxDay(internalMillis int64) int {
	l0 := float64(DayLengthAtEpoch) / 1e9
	d := dailyIncrease / 1e9
	target := float64(internalMillis) / 1000

	m := target / l0
	for i := 0; i < 5; i++ {
		m = target / (l0 + d*(m-1)/2)
	}
	return int(math.Floor(m))
}
