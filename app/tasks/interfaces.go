package tasks

import (
	"context"

	"github.com/lysyi3m/rss-relay/app/pipeline"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run the relay on a timer.
//
//	scheduler := NewScheduler(runner, settings)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Runner is the part of pipeline.Runner the tasks drive.
type Runner interface {
	RunUpdate(ctx context.Context) (*pipeline.RunReport, error)
	RunCleanup(ctx context.Context) (*pipeline.SweepReport, error)
}
