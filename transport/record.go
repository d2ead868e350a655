// Package transport serializes calendar tables so they can be built once
// and loaded elsewhere.
//
// The JSON form carries every boundary as a base-10 string, since
// boundaries exceed the integers a float64 based JSON reader can hold
// exactly. The CBOR form uses native integers and integer map keys.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/subtlepseudonym/lukashian"
)

// ErrMalformed is returned for records that do not describe valid
// tables
var ErrMalformed = errors.New("malformed table record")

// Record is the JSON form of a set of tables
type Record struct {
	MinYear  int    `json:"minYear"`
	MaxYear  int    `json:"maxYear"`
	MinDay   int    `json:"minDay"`
	MaxDay   int    `json:"maxDay"`
	// DayFloor is the end of day MinDay-1. Records written without it
	// get the floor recomputed on load.
	DayFloor string `json:"dayFloor,omitempty"`

	YearBoundaries []string `json:"yearBoundaries"`
	DayBoundaries  []string `json:"dayBoundaries"`

	// Start and End are the civil span the tables were planned for
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// FromTables converts tables to a Record
func FromTables(t *lukashian.Tables) *Record {
	r := t.Range()
	return &Record{
		MinYear:        r.MinYear,
		MaxYear:        r.MaxYear,
		MinDay:         r.MinDay,
		MaxDay:         r.MaxDay,
		DayFloor:       strconv.FormatInt(t.DayFloor(), 10),
		YearBoundaries: formatInts(t.Years()),
		DayBoundaries:  formatInts(t.Days()),
	}
}

// WithSpan sets the civil span the tables were planned for
func (r *Record) WithSpan(start, end time.Time) *Record {
	start, end = start.UTC(), end.UTC()
	r.Start, r.End = &start, &end
	return r
}

// Tables parses and validates the record
func (r *Record) Tables() (*lukashian.Tables, error) {
	var recorded *int64
	if r.DayFloor != "" {
		v, err := strconv.ParseInt(r.DayFloor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse day floor: %w", errors.Join(ErrMalformed, err))
		}
		recorded = &v
	}
	floor, err := dayFloor(r.MinDay, recorded)
	if err != nil {
		return nil, err
	}

	years, err := parseInts(r.YearBoundaries)
	if err != nil {
		return nil, fmt.Errorf("parse year boundaries: %w", err)
	}
	days, err := parseInts(r.DayBoundaries)
	if err != nil {
		return nil, fmt.Errorf("parse day boundaries: %w", err)
	}

	rng := lukashian.Range{
		MinYear: r.MinYear,
		MaxYear: r.MaxYear,
		MinDay:  r.MinDay,
		MaxDay:  r.MaxDay,
	}
	t, err := lukashian.NewTables(rng, years, days, floor)
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return t, nil
}

// MarshalJSON encodes tables as a JSON Record
func MarshalJSON(t *lukashian.Tables) ([]byte, error) {
	return json.Marshal(FromTables(t))
}

// UnmarshalJSON decodes and validates a JSON Record
func UnmarshalJSON(data []byte) (*lukashian.Tables, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", errors.Join(ErrMalformed, err))
	}
	return r.Tables()
}

// dayFloor returns the recorded floor, or derives it from the day
// model when the record has none
func dayFloor(minDay int, recorded *int64) (int64, error) {
	if recorded != nil {
		return *recorded, nil
	}
	if minDay <= 1 {
		return 0, nil
	}

	floor, err := lukashian.TrueDayEnd(minDay - 1)
	if err != nil {
		return 0, fmt.Errorf("derive day floor: %w", errors.Join(ErrMalformed, err))
	}
	return floor, nil
}

func formatInts(values []int64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}

func parseInts(values []string) ([]int64, error) {
	out := make([]int64, len(values))
	for i, s := range values {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, errors.Join(ErrMalformed, err))
		}
		out[i] = v
	}
	return out, nil
}
