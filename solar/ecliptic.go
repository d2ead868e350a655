package solar

import (
	"math"
)

const (
	// Obliquity is the axial tilt of the earth in degrees
	Obliquity = 23.44

	// CenterAmplitude is the first order amplitude of the equation of
	// the center in degrees. This stands in for orbital eccentricity.
	CenterAmplitude = 1.914

	// TropicalYear is the mean tropical year in days
	TropicalYear = 365.24
)

// Perihelion returns the JDE, in milliseconds, of the approximate
// barycentric perihelion passage during the given year
func Perihelion(year int) int64 {
	k := float64(roundHalfUp(0.99997 * (float64(year) - 5900.01)))
	jde := 2451547.507 + float64(365.2596358*k) + float64(0.0000000156*k*k)
	return jdeToMillis(jde)
}

// PerihelionInternal returns the perihelion of the given year as an
// internal instant
func PerihelionInternal(year int) int64 {
	return Perihelion(year) - CalendarStart
}

// EquationOfTime calculates the difference, in milliseconds, between
// mean and apparent solar time at the mean solar instant. The most
// recent solstice stands in for the ecliptic longitude origin and the
// most recent perihelion for the mean anomaly origin. Subtract the
// result from the mean instant to obtain the true solar instant.
//
// https://en.wikipedia.org/wiki/Equation_of_time#Alternative_calculation
func EquationOfTime(mean, solstice, perihelion int64) int64 {
	daysSinceSolstice := float64(mean-solstice) / MillisPerDay
	daysSincePerihelion := float64(mean-perihelion) / MillisPerDay

	n := 360 / TropicalYear
	a := n * daysSinceSolstice
	b := a + float64(CenterAmplitude*math.Sin(toRadians(n*daysSincePerihelion)))
	c := (a - toDegrees(math.Atan(math.Tan(toRadians(b))/math.Cos(toRadians(Obliquity))))) / 180

	minutes := 720 * (c - float64(roundHalfUp(c)))
	return roundHalfUp(minutes * 60 * 1000)
}
