package solar

import (
	"sort"
)

const (
	// UnixEpochOffset is the internal instant, in milliseconds, of
	// 1970-01-01T00:00:00Z before any leap seconds are applied
	UnixEpochOffset int64 = 185208761225352

	// ntpEpochOffset is the number of seconds between 1900-01-01 and
	// the unix epoch
	ntpEpochOffset int64 = 2208988800
)

// leapSecondsSince1900 is the list of instants, in seconds since
// 1 January 1900, at which a leap second was inserted.
//
// Values are taken from this page:
// https://www.ietf.org/timezones/data/leap-seconds.list
var leapSecondsSince1900 = []int64{
	2287785600, // 1 Jul 1972
	2303683200, // 1 Jan 1973
	2335219200, // 1 Jan 1974
	2366755200, // 1 Jan 1975
	2398291200, // 1 Jan 1976
	2429913600, // 1 Jan 1977
	2461449600, // 1 Jan 1978
	2492985600, // 1 Jan 1979
	2524521600, // 1 Jan 1980
	2571782400, // 1 Jul 1981
	2603318400, // 1 Jul 1982
	2634854400, // 1 Jul 1983
	2698012800, // 1 Jul 1985
	2776982400, // 1 Jan 1988
	2840140800, // 1 Jan 1990
	2871676800, // 1 Jan 1991
	2918937600, // 1 Jul 1992
	2950473600, // 1 Jul 1993
	2982009600, // 1 Jul 1994
	3029443200, // 1 Jan 1996
	3076704000, // 1 Jul 1997
	3124137600, // 1 Jan 1999
	3345062400, // 1 Jan 2006
	3439756800, // 1 Jan 2009
	3550089600, // 1 Jul 2012
	3644697600, // 1 Jul 2015
	3692217600, // 1 Jan 2017
}

// leapSeconds holds leapSecondsSince1900 as unix milliseconds
var leapSeconds = func() []int64 {
	millis := make([]int64, len(leapSecondsSince1900))
	for i, s := range leapSecondsSince1900 {
		millis[i] = (s - ntpEpochOffset) * 1000
	}
	return millis
}()

// LeapSeconds returns a copy of the leap second table as unix
// milliseconds
func LeapSeconds() []int64 {
	return append([]int64(nil), leapSeconds...)
}

// NumLeapSeconds calculates the number of leap seconds inserted at or
// before the unix time in milliseconds.
//
// An entry equal to civilMillis counts as already passed. The time
// package has no notion of leap seconds, so they must be added here.
// https://github.com/golang/go/issues/15247
func NumLeapSeconds(civilMillis int64) int {
	return sort.Search(len(leapSeconds), func(i int) bool {
		return leapSeconds[i] > civilMillis
	})
}

// ToInternal converts unix milliseconds into the calendar's
// continuous internal time base
func ToInternal(civilMillis int64) int64 {
	return civilMillis + int64(NumLeapSeconds(civilMillis))*1000 + UnixEpochOffset
}

// ToCivil is the inverse of ToInternal. It returns the smallest unix
// time whose internal instant is not before internal, so instants that
// fall inside an inserted leap second map to the first millisecond
// after it.
func ToCivil(internal int64) int64 {
	span := int64(len(leapSeconds)) * 1000
	low := internal - UnixEpochOffset - span

	offset := sort.Search(int(span)+1, func(i int) bool {
		return ToInternal(low+int64(i)) >= internal
	})
	return low + int64(offset)
}
