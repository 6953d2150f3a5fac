package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func testScheduler() *Scheduler {
	return NewScheduler(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSchedulerRegister(t *testing.T) {
	t.Run("rejects nil job and schedule", func(t *testing.T) {
		s := testScheduler()

		assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
		assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		s := testScheduler()

		require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)))
		assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
	})

	t.Run("lists registered jobs", func(t *testing.T) {
		s := testScheduler()

		require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)))
		require.NoError(t, s.Register(&countingJob{name: "b"}, NewDailySchedule(3, 0)))

		infos := s.ListJobs()
		require.Len(t, infos, 2)
		for _, info := range infos {
			assert.True(t, info.Enabled)
			assert.False(t, info.NextRun.IsZero())
		}
	})
}

func TestSchedulerRunNow(t *testing.T) {
	t.Run("executes job immediately", func(t *testing.T) {
		s := testScheduler()
		job := &countingJob{name: "sweep"}
		require.NoError(t, s.Register(job, NewDailySchedule(3, 0)))

		result, err := s.RunNow(context.Background(), "sweep")
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.EqualValues(t, 1, job.runs.Load())
	})

	t.Run("reports job failure", func(t *testing.T) {
		s := testScheduler()
		job := &countingJob{name: "sweep", err: errors.New("boom")}
		require.NoError(t, s.Register(job, NewDailySchedule(3, 0)))

		result, err := s.RunNow(context.Background(), "sweep")
		require.Error(t, err)
		assert.False(t, result.Success)
	})

	t.Run("unknown job", func(t *testing.T) {
		s := testScheduler()

		_, err := s.RunNow(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	s := testScheduler()
	require.NoError(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestDailySchedule(t *testing.T) {
	s := NewDailySchedule(3, 30)

	t.Run("before today's slot", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), s.Next(at))
	})

	t.Run("after today's slot rolls to tomorrow", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), s.Next(at))
	})

	t.Run("exactly at slot rolls to tomorrow", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), s.Next(at))
	})

	assert.Equal(t, "@daily 03:30", s.String())
}
