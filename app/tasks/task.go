package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeUpdate  TaskType = "update"
	TaskTypeCleanup TaskType = "cleanup"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID        string
	Type      TaskType
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType) Task {
	return Task{
		ID:   uuid.NewString(),
		Type: taskType,
	}
}

// Dispatch picks the task for a tick at now: the retention sweep on the first
// tick inside retentionHour (UTC) of a day not yet swept, an update run
// otherwise. lastSweep is zero when no sweep has been dispatched yet.
func Dispatch(now time.Time, retentionHour int, lastSweep time.Time) TaskType {
	now = now.UTC()
	if now.Hour() != retentionHour {
		return TaskTypeUpdate
	}
	if !lastSweep.IsZero() && sameDay(lastSweep.UTC(), now) {
		return TaskTypeUpdate
	}
	return TaskTypeCleanup
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
