package lukashian

import (
	"context"
	"log/slog"
	"time"
)

const retryLimit = 3

// DaySource is the part of a Calendar that day schedules and jobs use.
// *Calendar implements it.
type DaySource interface {
	NextBoundary(ctx context.Context, civil int64) (int64, error)
	Now(ctx context.Context) (Date, error)
}

// DaySchedule fires at the start of every true solar day, shifted by
// Offset.
//
// This implements robfig/cron.Schedule
type DaySchedule struct {
	Calendar DaySource
	Offset   time.Duration
	Logger   *slog.Logger

	errCount int
}

func (s *DaySchedule) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Next returns the next day start after now, plus Offset. If the day
// start cannot be found it retries a minute later, and gives up with
// the zero time after retryLimit failures in a row.
func (s *DaySchedule) Next(now time.Time) time.Time {
	ctx := context.Background()

	start, err := s.Calendar.NextBoundary(ctx, now.UnixMilli())
	if err != nil {
		return s.retry(err)
	}

	next := time.UnixMilli(start).Add(s.Offset)
	if !next.After(now) {
		start, err = s.Calendar.NextBoundary(ctx, start)
		if err != nil {
			return s.retry(err)
		}
		next = time.UnixMilli(start).Add(s.Offset)
	}

	s.errCount = 0
	s.logger().Debug("next day start", "offset", s.Offset, "at", next.Format(time.RFC3339))
	return next
}

func (s *DaySchedule) retry(err error) time.Time {
	s.logger().Error("get next day start", "error", err, "attempt", s.errCount+1)
	if s.errCount >= retryLimit {
		return time.Time{}
	}

	s.errCount++
	return time.Now().Add(time.Minute)
}

// DayJob resolves the current date and hands it to Func.
//
// This implements robfig/cron.Job
type DayJob struct {
	Calendar DaySource
	Func     func(Date)
	Logger   *slog.Logger
}

func (j DayJob) Run() {
	date, err := j.Calendar.Now(context.Background())
	if err != nil {
		logger := j.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("resolve current date", "error", err)
		return
	}
	j.Func(date)
}
