package lukashian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subtlepseudonym/lukashian/solar"
)

// DefaultWiden is how far past a missed instant an automatic rebuild
// extends the tables
const DefaultWiden = 30 * 24 * time.Hour

// Cache stores built tables by Range
type Cache interface {
	// Get returns ErrCacheMiss if no tables are stored for r
	Get(ctx context.Context, r Range) (*Tables, error)
	Put(ctx context.Context, t *Tables) error
}

type Options struct {
	Builder *Builder
	Buffer  Buffer

	// Widen is added beyond an out of range instant when AutoExtend
	// rebuilds the tables
	Widen      time.Duration
	AutoExtend bool

	Cache  Cache
	Logger *slog.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

// Calendar resolves civil instants against the tables it holds. Reads
// never block; rebuilds are serialized and replace the tables whole.
type Calendar struct {
	opts   Options
	tables atomic.Pointer[Tables]

	// mu serializes rebuilds
	mu sync.Mutex
}

func New(opts Options) *Calendar {
	if opts.Builder == nil {
		opts.Builder = &Builder{Logger: opts.Logger}
	}
	if opts.Buffer == (Buffer{}) {
		opts.Buffer = DefaultBuffer
	}
	if opts.Widen <= 0 {
		opts.Widen = DefaultWiden
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Calendar{opts: opts}
}

// Tables returns the current tables, or nil before the first build
func (c *Calendar) Tables() *Tables {
	return c.tables.Load()
}

// Cache returns the cache tables are loaded through, or nil
func (c *Calendar) Cache() Cache {
	return c.opts.Cache
}

// Set replaces the current tables
func (c *Calendar) Set(t *Tables) {
	c.tables.Store(t)
}

// Ensure builds tables covering every civil instant in [start, end]
// unless the current tables already do. The new tables also cover
// everything the current ones did.
func (c *Calendar) Ensure(ctx context.Context, start, end int64) error {
	if start > end {
		return fmt.Errorf("ensure %d to %d: %w", start, end, ErrInvalidRange)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.tables.Load()
	if resolvable(current, start) && resolvable(current, end) {
		return nil
	}
	if current != nil {
		start = min(start, solar.ToCivil(current.First()))
		end = max(end, solar.ToCivil(current.Last()))
	}
	return c.rebuild(ctx, start, end)
}

// rebuild must be called with mu held
func (c *Calendar) rebuild(ctx context.Context, start, end int64) error {
	r, err := Plan(start, end, c.opts.Buffer)
	if err != nil {
		return fmt.Errorf("plan tables: %w", err)
	}

	t, err := c.load(ctx, r)
	if err != nil {
		return err
	}
	c.tables.Store(t)
	c.opts.Logger.Debug("swapped calendar tables", "range", r.String())
	return nil
}

// TablesFor returns tables covering [start, end] without replacing the
// current tables
func (c *Calendar) TablesFor(ctx context.Context, start, end int64) (*Tables, error) {
	r, err := Plan(start, end, c.opts.Buffer)
	if err != nil {
		return nil, fmt.Errorf("plan tables: %w", err)
	}
	return c.load(ctx, r)
}

func (c *Calendar) load(ctx context.Context, r Range) (*Tables, error) {
	if c.opts.Cache != nil {
		t, err := c.opts.Cache.Get(ctx, r)
		switch {
		case err == nil:
			cacheTotal.WithLabelValues("hit").Inc()
			return t, nil
		case errors.Is(err, ErrCacheMiss):
			cacheTotal.WithLabelValues("miss").Inc()
		default:
			cacheTotal.WithLabelValues("error").Inc()
			c.opts.Logger.Warn("read cached tables", "range", r.String(), "error", err)
		}
	}

	t, err := c.opts.Builder.Build(ctx, r)
	if err != nil {
		return nil, err
	}

	if c.opts.Cache != nil {
		if err := c.opts.Cache.Put(ctx, t); err != nil {
			c.opts.Logger.Warn("cache tables", "range", r.String(), "error", err)
		}
	}
	return t, nil
}

// Resolve returns the Date of a civil instant in unix milliseconds.
// With AutoExtend set, an instant the tables cannot resolve triggers a
// rebuild that covers it.
func (c *Calendar) Resolve(ctx context.Context, civil int64) (Date, error) {
	date, err := c.tables.Load().ResolveCivil(civil)
	if err != nil && c.opts.AutoExtend && extendable(err) {
		if err = c.extend(ctx, civil, err); err == nil {
			date, err = c.tables.Load().ResolveCivil(civil)
		}
	}

	resolveTotal.WithLabelValues(resolveResult(err)).Inc()
	return date, err
}

// Now resolves the current time
func (c *Calendar) Now(ctx context.Context) (Date, error) {
	return c.Resolve(ctx, c.opts.Now().UnixMilli())
}

// NextBoundary returns the civil instant, in unix milliseconds, at
// which the day after the one containing civil begins
func (c *Calendar) NextBoundary(ctx context.Context, civil int64) (int64, error) {
	if c.opts.AutoExtend {
		// the next boundary is never more than a day and a half away
		if err := c.Ensure(ctx, civil, civil+2*solar.MillisPerDay); err != nil {
			return 0, err
		}
	}

	end, err := c.tables.Load().NextDayBoundary(solar.ToInternal(civil))
	if err != nil {
		return 0, err
	}
	return solar.ToCivil(end + 1), nil
}

func (c *Calendar) extend(ctx context.Context, civil int64, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.tables.Load()
	if resolvable(current, civil) {
		// extended while waiting for the lock
		return nil
	}

	widen := c.opts.Widen.Milliseconds()
	start, end := civil-widen, civil+widen
	if current != nil {
		var oor *OutOfRangeError
		if errors.As(cause, &oor) && oor.Side == BelowRange {
			end = solar.ToCivil(current.Last())
		} else {
			start = solar.ToCivil(current.First())
		}
	}

	c.opts.Logger.Info("extending calendar tables", "instant", civil, "cause", cause)
	return c.rebuild(ctx, start, end)
}

func resolvable(t *Tables, civil int64) bool {
	if t == nil {
		return false
	}
	_, err := t.ResolveCivil(civil)
	return err == nil
}

func extendable(err error) bool {
	return errors.Is(err, ErrOutOfRange) || errors.Is(err, ErrTableNotBuilt)
}
