package lukashian

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// ErrNoSunEvent is returned when the sun does not rise or set at a
// location on a given date
var ErrNoSunEvent = errors.New("sun does not rise or set")

type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" toml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" toml:"longitude" validate:"gte=-180,lte=180"`
}

// SunEvent is a civil time and the Date it falls on
type SunEvent struct {
	Time time.Time `json:"time"`
	Date Date      `json:"date"`
}

// SunDay is the sunrise, solar noon and sunset of a civil date
type SunDay struct {
	Sunrise SunEvent `json:"sunrise"`
	Noon    SunEvent `json:"noon"`
	Sunset  SunEvent `json:"sunset"`
}

// SunEvents resolves sunrise, solar noon and sunset at a location on
// the civil date of day
func SunEvents(ctx context.Context, cal *Calendar, loc Location, day time.Time) (SunDay, error) {
	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, day.Year(), day.Month(), day.Day())
	if rise.IsZero() || set.IsZero() {
		return SunDay{}, fmt.Errorf("%s at %f,%f: %w", day.Format(time.DateOnly), loc.Latitude, loc.Longitude, ErrNoSunEvent)
	}
	noon := rise.Add(set.Sub(rise) / 2)

	var events SunDay
	for _, e := range []struct {
		at  time.Time
		out *SunEvent
	}{
		{rise, &events.Sunrise},
		{noon, &events.Noon},
		{set, &events.Sunset},
	} {
		date, err := cal.Resolve(ctx, e.at.UnixMilli())
		if err != nil {
			return SunDay{}, fmt.Errorf("resolve %s: %w", e.at.Format(time.RFC3339), err)
		}
		*e.out = SunEvent{Time: e.at, Date: date}
	}
	return events, nil
}
