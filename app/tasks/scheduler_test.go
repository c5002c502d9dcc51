package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/pipeline"
)

type fakeRunner struct {
	mu       sync.Mutex
	updates  int
	cleanups int
	err      error
}

func (f *fakeRunner) RunUpdate(ctx context.Context) (*pipeline.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.RunReport{Feeds: []pipeline.FeedResult{{Name: "a", Delivered: 2}}}, nil
}

func (f *fakeRunner) RunCleanup(ctx context.Context) (*pipeline.SweepReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	return &pipeline.SweepReport{Feeds: []pipeline.SweepResult{{Name: "a", Deleted: 3}}}, f.err
}

func (f *fakeRunner) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates, f.cleanups
}

func TestDispatch(t *testing.T) {
	sweptToday := time.Date(2024, 1, 1, 4, 0, 10, 0, time.UTC)
	sweptYesterday := time.Date(2023, 12, 31, 4, 0, 10, 0, time.UTC)

	tests := []struct {
		name      string
		now       time.Time
		lastSweep time.Time
		want      TaskType
	}{
		{"retention hour at minute zero", time.Date(2024, 1, 1, 4, 0, 30, 0, time.UTC), time.Time{}, TaskTypeCleanup},
		{"retention hour past minute zero not yet swept", time.Date(2024, 1, 1, 4, 1, 30, 0, time.UTC), sweptYesterday, TaskTypeCleanup},
		{"retention hour already swept today", time.Date(2024, 1, 1, 4, 1, 0, 0, time.UTC), sweptToday, TaskTypeUpdate},
		{"other hour at minute zero", time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC), time.Time{}, TaskTypeUpdate},
		{"local time is converted to UTC", time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("CST", 8*3600)), sweptYesterday, TaskTypeCleanup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dispatch(tt.now, 4, tt.lastSweep))
		})
	}
}

func TestSchedulerTickDispatches(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, feed.Settings{PollInterval: 60})

	scheduler.now = func() time.Time { return time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC) }
	scheduler.tick()
	task := <-scheduler.taskQueue
	assert.Equal(t, TaskTypeCleanup, task.GetType())

	scheduler.now = func() time.Time { return time.Date(2024, 1, 1, 4, 1, 0, 0, time.UTC) }
	scheduler.tick()
	task = <-scheduler.taskQueue
	assert.Equal(t, TaskTypeUpdate, task.GetType())
}

func TestSchedulerSweepsOncePerDayWithSlowTicks(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, feed.Settings{PollInterval: 120})

	// Ticks every 120s starting at an odd second never land in minute zero
	// of the retention hour.
	clock := time.Date(2024, 1, 1, 0, 1, 30, 0, time.UTC)
	scheduler.now = func() time.Time { return clock }

	var sweeps []time.Time
	for i := 0; i < 48*30; i++ {
		clock = clock.Add(120 * time.Second)
		scheduler.tick()
		if task := <-scheduler.taskQueue; task.GetType() == TaskTypeCleanup {
			sweeps = append(sweeps, clock)
		}
	}

	require.Len(t, sweeps, 2)
	for _, at := range sweeps {
		assert.Equal(t, 4, at.Hour())
	}
	assert.NotEqual(t, sweeps[0].Day(), sweeps[1].Day())
}

func TestSchedulerRetriesDroppedSweep(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, feed.Settings{PollInterval: 60})
	scheduler.now = func() time.Time { return time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC) }

	require.NoError(t, scheduler.EnqueueTask(NewUpdateTask(runner)))
	scheduler.tick()
	assert.True(t, scheduler.lastSweep.IsZero())

	<-scheduler.taskQueue
	scheduler.now = func() time.Time { return time.Date(2024, 1, 1, 4, 1, 0, 0, time.UTC) }
	scheduler.tick()
	task := <-scheduler.taskQueue
	assert.Equal(t, TaskTypeCleanup, task.GetType())
}

func TestSchedulerDropsTickWhenBusy(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, feed.Settings{PollInterval: 60})

	require.NoError(t, scheduler.EnqueueTask(NewUpdateTask(runner)))
	err := scheduler.EnqueueTask(NewUpdateTask(runner))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task queue is full")
}

func TestSchedulerRunsStartupUpdate(t *testing.T) {
	runner := &fakeRunner{}
	scheduler := NewScheduler(runner, feed.Settings{PollInterval: 3600})

	scheduler.Start()
	assert.Eventually(t, func() bool {
		updates, _ := runner.counts()
		return updates == 1
	}, time.Second, 10*time.Millisecond)
	scheduler.Stop()

	_, cleanups := runner.counts()
	assert.Zero(t, cleanups)
}

func TestUpdateTaskExecute(t *testing.T) {
	runner := &fakeRunner{}
	task := NewUpdateTask(runner)
	task.Start()

	require.NoError(t, task.Execute(context.Background()))
	assert.NotEmpty(t, task.GetID())
	assert.Equal(t, TaskTypeUpdate, task.GetType())

	runner.err = errors.New("store unreachable")
	assert.ErrorContains(t, task.Execute(context.Background()), "store unreachable")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
}

func TestCleanupTaskExecute(t *testing.T) {
	runner := &fakeRunner{}
	task := NewCleanupTask(runner)

	require.NoError(t, task.Execute(context.Background()))

	runner.err = errors.New("feed b: disk full")
	err := task.Execute(context.Background())
	assert.ErrorContains(t, err, "cleanup finished with errors")

	_, cleanups := runner.counts()
	assert.Equal(t, 2, cleanups)
}

func TestNewTaskIDsAreUnique(t *testing.T) {
	a := NewTask(TaskTypeUpdate)
	b := NewTask(TaskTypeUpdate)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Zero(t, a.GetDuration())
}
