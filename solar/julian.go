package solar

import (
	"math"
)

const (
	MillisPerDay = 24 * 3600 * 1000

	// julianMillennium is the boundary between the two JDE0 expansions.
	// The year < 4900 branch is centered on year 3900 and the other on
	// year 5900.
	julianMillennium = 4900
)

// term is one periodic term of the solar longitude series: amplitude,
// phase in degrees, and frequency in degrees per julian century
type term struct {
	amplitude float64
	phase     float64
	frequency float64
}

// periodicTerms are the 24 terms used to refine the mean solstice
// https://en.wikipedia.org/wiki/Solstice#Solstice_terms
var periodicTerms = [24]term{
	{485, 324.96, 1934.136},
	{203, 337.23, 32964.467},
	{199, 342.08, 20.186},
	{182, 27.85, 445267.112},
	{156, 73.14, 45036.886},
	{136, 171.52, 22518.443},
	{77, 222.54, 65928.934},
	{74, 296.72, 3034.906},
	{70, 243.58, 9037.513},
	{58, 119.81, 33718.147},
	{52, 297.17, 150.678},
	{50, 21.02, 2281.226},
	{45, 247.54, 29929.562},
	{44, 325.15, 31555.956},
	{29, 60.93, 4443.417},
	{18, 155.12, 67555.328},
	{17, 288.79, 4562.452},
	{16, 198.04, 62894.029},
	{14, 199.76, 31436.921},
	{12, 95.39, 14577.848},
	{12, 287.11, 31931.756},
	{12, 320.81, 34777.259},
	{9, 227.73, 1222.114},
	{8, 15.45, 16859.074},
}

// CalendarStart is the JDE in milliseconds of the end of year 0. Every
// internal instant is relative to it, which makes millisecond 1 the
// first millisecond of the calendar.
var CalendarStart = YearEnd(0)

// YearEnd returns the JDE, in milliseconds, of the December solstice
// that ends the given year.
//
// The mean solstice (JDE0) comes from a quartic in millennia, then is
// corrected by the 24 periodic terms scaled by the derivative term dL.
// Products are wrapped in explicit float64 conversions so the compiler
// cannot fuse them into FMA instructions; results must be identical
// across architectures.
func YearEnd(year int) int64 {
	var jde0 float64
	if year < julianMillennium {
		y := float64(year-3900) / 1000
		jde0 = 1721414.39987 + float64(365242.88257*y) - float64(0.00769*y*y) - float64(0.00933*y*y*y) - float64(0.00006*y*y*y*y)
	} else {
		y := float64(year-5900) / 1000
		jde0 = 2451900.05952 + float64(365242.74049*y) - float64(0.06223*y*y) - float64(0.00823*y*y*y) + float64(0.00032*y*y*y*y)
	}

	t := (jde0 - 2451545.0) / 36525
	w := float64(t*35999.373) - 2.47
	dL := float64(0.0334*cosDeg(w)) + float64(0.0007*cosDeg(2*w)) + 1

	var s float64
	for _, p := range periodicTerms {
		s += float64(p.amplitude * cosDeg(p.phase+float64(p.frequency*t)))
	}

	jde := jde0 + float64(0.00001*s)/dL
	return jdeToMillis(jde)
}

// YearEndInternal returns the end of the given year as an internal
// instant
func YearEndInternal(year int) int64 {
	return YearEnd(year) - CalendarStart
}

// jdeToMillis converts a fractional JDE into whole milliseconds
func jdeToMillis(jde float64) int64 {
	return roundHalfUp(jde * 24 * 3600 * 1000)
}

// roundHalfUp rounds to the nearest integer with ties toward positive
// infinity. math.Round breaks ties away from zero, which differs for
// negative halves.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func toDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

func cosDeg(degrees float64) float64 {
	return math.Cos(toRadians(degrees))
}
