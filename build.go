package lukashian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subtlepseudonym/lukashian/solar"
)

// cancelCheckInterval is how many days the sequential build computes
// between context checks
const cancelCheckInterval = 1 << 14

// Builder constructs Tables for a Range
type Builder struct {
	// Workers is the number of goroutines computing day corrections.
	// Values below 2 build sequentially. Output is identical either way.
	Workers int

	Logger *slog.Logger
}

func (b *Builder) logger() *slog.Logger {
	if b == nil || b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Builder) workers() int {
	if b == nil || b.Workers < 1 {
		return 1
	}
	return b.Workers
}

// Build computes the year and day boundaries of r.
//
// Mean solar day ends are accumulated sequentially from day 1, which is
// linear in r.MaxDay. Each mean day end is then moved to the true solar
// day end by the equation of time, using the most recent solstice and
// perihelion at or before it.
func (b *Builder) Build(ctx context.Context, r Range) (*Tables, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("build tables: %w", err)
	}

	began := time.Now()
	mode := "sequential"
	if b.workers() > 1 {
		mode = "sharded"
	}
	log := b.logger().With("range", r.String(), "mode", mode)
	log.Debug("building tables")

	years := make([]int64, r.Years())
	for i := range years {
		years[i] = solar.YearEndInternal(r.MinYear + i)
	}

	means, err := meanDayEnds(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("build tables: %w", err)
	}

	eph := newEphemeris(means[0], means[len(means)-1])

	// trueEnds[0] is the floor, the end of day MinDay-1
	trueEnds := make([]int64, len(means))
	if b.workers() > 1 {
		err = eph.correctSharded(ctx, means, trueEnds, b.workers())
	} else {
		err = eph.correct(ctx, means, trueEnds)
	}
	if err != nil {
		return nil, fmt.Errorf("build tables: %w", err)
	}

	floor := trueEnds[0]
	if r.MinDay == 1 {
		floor = 0
	}

	t, err := NewTables(r, years, trueEnds[1:], floor)
	if err != nil {
		return nil, fmt.Errorf("build tables: %w", err)
	}

	elapsed := time.Since(began)
	buildDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	builtDays.Set(float64(r.Days()))
	log.Info("built tables", "days", r.Days(), "years", r.Years(), "elapsed", elapsed)

	return t, nil
}

// TrueDayEnd returns the last millisecond of a single day, computed
// as Build computes it. The end of day 0 is 0.
func TrueDayEnd(day int) (int64, error) {
	if day == 0 {
		return 0, nil
	}

	clock, err := solar.NewClock(day)
	if err != nil {
		return 0, fmt.Errorf("true day end: %w", errors.Join(ErrInvalidRange, err))
	}
	mean := clock.Advance()
	return newEphemeris(mean, mean).trueEnd(mean)
}

// meanDayEnds returns the mean solar ends of days MinDay-1 through
// MaxDay in internal milliseconds. The end of day 0 is 0.
func meanDayEnds(ctx context.Context, r Range) ([]int64, error) {
	clock, err := solar.NewClock(r.MinDay)
	if err != nil {
		return nil, err
	}

	means := make([]int64, 0, r.Days()+1)
	means = append(means, clock.Millis())
	for day := r.MinDay; day <= r.MaxDay; day++ {
		if (day-r.MinDay)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		means = append(means, clock.Advance())
	}
	return means, nil
}

// ephemeris holds the solstices and perihelia bracketing a span of
// mean day ends
type ephemeris struct {
	solstices []int64
	perihelia []int64
}

// newEphemeris looks up every solstice and perihelion that can be the
// most recent one for an instant in [low, high]
func newEphemeris(low, high int64) *ephemeris {
	lowYear := YearOf(low) - 1
	highYear := YearOf(high) + 1

	e := &ephemeris{}
	for year := lowYear; year <= highYear; year++ {
		e.solstices = append(e.solstices, solar.YearEndInternal(year))
	}
	// a year's perihelion falls a couple of weeks after the solstice
	// that starts it
	for year := lowYear - 1; year <= highYear; year++ {
		e.perihelia = append(e.perihelia, solar.PerihelionInternal(year))
	}
	return e
}

// trueEnd applies the equation of time to a mean day end
func (e *ephemeris) trueEnd(mean int64) (int64, error) {
	s := mostRecent(e.solstices, mean)
	p := mostRecent(e.perihelia, mean)
	if s < 0 || p < 0 {
		return 0, fmt.Errorf("no solstice or perihelion before %d: %w", mean, ErrInvalidRange)
	}
	return mean - solar.EquationOfTime(mean, e.solstices[s], e.perihelia[p]), nil
}

func (e *ephemeris) correct(ctx context.Context, means, out []int64) error {
	for i, mean := range means {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		end, err := e.trueEnd(mean)
		if err != nil {
			return err
		}
		out[i] = end
	}
	return nil
}

// correctSharded splits means into one contiguous chunk per worker.
// Each chunk writes a disjoint part of out.
func (e *ephemeris) correctSharded(ctx context.Context, means, out []int64, workers int) error {
	size := (len(means) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(means); lo += size {
		hi := min(lo+size, len(means))
		g.Go(func() error {
			return e.correct(gctx, means[lo:hi], out[lo:hi])
		})
	}
	return g.Wait()
}
