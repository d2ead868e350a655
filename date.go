package lukashian

import (
	"fmt"
	"strings"
)

// BeepsPerDay is the number of beeps in every day, regardless of the
// day's length
const BeepsPerDay = 10000

// Date is a moment in The Lukashian Calendar
type Date struct {
	Year int `json:"year"`
	Day  int `json:"day"`  // 1-based day of the year
	Beep int `json:"beep"` // 0-9999
}

// Layout selects the field order of a formatted Date
type Layout int

const (
	// LayoutBeepFirst formats as "BBBB DDD-YYYY"
	LayoutBeepFirst Layout = iota
	// LayoutYearFirst formats as "YYYY-DDD BBBB"
	LayoutYearFirst
)

var layoutNames = map[string]Layout{
	"beep-first": LayoutBeepFirst,
	"year-first": LayoutYearFirst,
}

// ParseLayout reads a layout name as used in configuration. The empty
// string selects LayoutBeepFirst.
func ParseLayout(name string) (Layout, error) {
	if name == "" {
		return LayoutBeepFirst, nil
	}

	layout, ok := layoutNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown layout %q", name)
	}
	return layout, nil
}

// String returns the canonical form, "BBBB DDD-YYYY"
func (d Date) String() string {
	return d.Format(LayoutBeepFirst)
}

func (d Date) Format(layout Layout) string {
	if layout == LayoutYearFirst {
		return fmt.Sprintf("%d-%03d %04d", d.Year, d.Day, d.Beep)
	}
	return fmt.Sprintf("%04d %03d-%d", d.Beep, d.Day, d.Year)
}
