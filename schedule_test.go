package lukashian

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cron.Schedule = (*DaySchedule)(nil)
var _ cron.Job = DayJob{}

func TestDayScheduleNext(t *testing.T) {
	cal := New(Options{AutoExtend: true})
	now := time.UnixMilli(civil(2025, time.June, 1, 12))

	s := &DaySchedule{Calendar: cal}
	next := s.Next(now)
	assert.Equal(t, int64(1748811679892), next.UnixMilli())

	// a schedule firing exactly at a day start moves on to the next one
	following := s.Next(next)
	assert.Equal(t, int64(1748898089315), following.UnixMilli())
}

func TestDayScheduleOffset(t *testing.T) {
	cal := New(Options{AutoExtend: true})
	now := time.UnixMilli(civil(2025, time.June, 1, 12))

	late := (&DaySchedule{Calendar: cal, Offset: time.Hour}).Next(now)
	assert.Equal(t, 1748811679892+time.Hour.Milliseconds(), late.UnixMilli())

	// today's start minus ten hours falls before now, so tomorrow's is used
	early := (&DaySchedule{Calendar: cal, Offset: -10 * time.Hour}).Next(now)
	assert.True(t, early.After(now))
	assert.Equal(t, 1748898089315-10*time.Hour.Milliseconds(), early.UnixMilli())
}

func TestDayScheduleRetries(t *testing.T) {
	s := &DaySchedule{Calendar: New(Options{})}
	now := time.UnixMilli(civil(2025, time.June, 1, 12))

	for i := 0; i < retryLimit; i++ {
		next := s.Next(now)
		require.False(t, next.IsZero(), "attempt %d", i)
		assert.WithinDuration(t, time.Now().Add(time.Minute), next, 5*time.Second)
	}
	assert.True(t, s.Next(now).IsZero())
}

func TestDayScheduleResetsAfterSuccess(t *testing.T) {
	cal := New(Options{})
	s := &DaySchedule{Calendar: cal}
	now := time.UnixMilli(civil(2025, time.June, 1, 12))

	s.Next(now)
	s.Next(now)
	assert.Equal(t, 2, s.errCount)

	cal.Set(build2025(t))
	assert.False(t, s.Next(now).IsZero())
	assert.Equal(t, 0, s.errCount)
}

func TestDayJob(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	cal := New(Options{Now: func() time.Time { return now }})
	cal.Set(build2025(t))

	var got Date
	DayJob{Calendar: cal, Func: func(d Date) { got = d }}.Run()
	assert.Equal(t, 5925, got.Year)
	assert.Equal(t, 162, got.Day)

	called := false
	DayJob{Calendar: New(Options{}), Func: func(Date) { called = true }}.Run()
	assert.False(t, called)
}

func TestDayScheduleWithCron(t *testing.T) {
	cal := New(Options{AutoExtend: true})
	c := cron.New()

	id := c.Schedule(&DaySchedule{Calendar: cal}, DayJob{Calendar: cal, Func: func(Date) {}})
	entry := c.Entry(id)
	assert.True(t, entry.Valid())
}
