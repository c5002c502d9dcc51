package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type CleanupTask struct {
	Task
	runner Runner
}

func NewCleanupTask(runner Runner) *CleanupTask {
	return &CleanupTask{
		Task:   NewTask(TaskTypeCleanup),
		runner: runner,
	}
}

func (t *CleanupTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.runner.RunCleanup(ctx)
	if report == nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"duration", t.GetDuration(),
		"feeds", len(report.Feeds),
		"deleted", report.Deleted())

	if err != nil {
		return fmt.Errorf("cleanup finished with errors: %w", err)
	}

	return nil
}
