package lukashian

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotBuilt is returned when resolving before any tables
	// exist
	ErrTableNotBuilt = errors.New("calendar tables not built")

	// ErrInvalidRange is returned for ranges that cannot be built
	ErrInvalidRange = errors.New("invalid range")

	// ErrMalformedTables is returned when boundary tables do not match
	// their range or are not strictly increasing
	ErrMalformedTables = errors.New("malformed tables")

	// ErrOutOfRange matches every *OutOfRangeError via errors.Is
	ErrOutOfRange = errors.New("instant outside calendar tables")

	// ErrCacheMiss is returned by a Cache that holds no tables for a
	// range
	ErrCacheMiss = errors.New("tables not cached")
)

// Side is the table edge an instant fell beyond
type Side int

const (
	BelowRange Side = iota + 1
	AboveRange
)

func (s Side) String() string {
	switch s {
	case BelowRange:
		return "below range"
	case AboveRange:
		return "above range"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// OutOfRangeError reports an internal instant outside the covered
// span [Min, Max] of a set of tables. It is recoverable by widening the
// range and rebuilding.
type OutOfRangeError struct {
	Side    Side
	Instant int64
	Min     int64
	Max     int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("instant %d %s [%d, %d]", e.Instant, e.Side, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
