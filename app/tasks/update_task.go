package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type UpdateTask struct {
	Task
	runner Runner
}

func NewUpdateTask(runner Runner) *UpdateTask {
	return &UpdateTask{
		Task:   NewTask(TaskTypeUpdate),
		runner: runner,
	}
}

func (t *UpdateTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.runner.RunUpdate(ctx)
	if err != nil {
		return fmt.Errorf("update run failed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"duration", t.GetDuration(),
		"feeds", len(report.Feeds),
		"failed_feeds", len(report.FailedFeeds()),
		"delivered", report.Delivered(),
		"failed_items", report.FailedItems())

	return nil
}
