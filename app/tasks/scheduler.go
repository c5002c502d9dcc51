package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-relay/app/feed"
)

const taskTimeout = 30 * time.Minute

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler turns every tick into an update run or a retention sweep and
// executes them one at a time on a single worker.
type Scheduler struct {
	runner        Runner
	interval      time.Duration
	retentionHour int
	now           func() time.Time
	lastSweep     time.Time // touched only by the ticker goroutine
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(runner Runner, settings feed.Settings) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:        runner,
		interval:      settings.GetPollInterval(),
		retentionHour: settings.GetRetentionHour(),
		now:           time.Now,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 1),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueue(NewUpdateTask(s.runner))

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) tick() {
	now := s.now()

	switch Dispatch(now, s.retentionHour, s.lastSweep) {
	case TaskTypeCleanup:
		// A dropped sweep is retried on the next tick of the hour.
		if s.enqueue(NewCleanupTask(s.runner)) {
			s.lastSweep = now
		}
	default:
		s.enqueue(NewUpdateTask(s.runner))
	}
}

func (s *Scheduler) enqueue(task TaskInterface) bool {
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue task, skipping tick", "type", string(task.GetType()), "error", err)
		return false
	}
	return true
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}
}
