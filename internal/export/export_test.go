package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"kidsfolio/internal/tasks"
)

type fakeEnqueuer struct {
	err     error
	tasks   []*asynq.Task
	state   asynq.TaskState
	deleted []string
}

func (f *fakeEnqueuer) GetTaskInfo(_, id string) (*asynq.TaskInfo, error) {
	if f.state == 0 {
		return nil, asynq.ErrTaskNotFound
	}
	return &asynq.TaskInfo{ID: id, State: f.state}, nil
}

func (f *fakeEnqueuer) DeleteTask(_, id string) error {
	f.deleted = append(f.deleted, id)
	f.err = nil
	return nil
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "1", Type: task.Type()}, nil
}

func TestTrigger(t *testing.T) {
	enq := &fakeEnqueuer{}
	if err := Trigger(context.Background(), enq, "amy-chen", "zh", "corr-1", time.Minute); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(enq.tasks) != 1 || enq.tasks[0].Type() != tasks.TypePortfolioSnapshot {
		t.Fatalf("tasks = %+v", enq.tasks)
	}
	var payload tasks.SnapshotPayload
	if err := json.Unmarshal(enq.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Slug != "amy-chen" || payload.Lang != "zh" || payload.CorrelationID != "corr-1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestTriggerInFlight(t *testing.T) {
	for _, dup := range []error{asynq.ErrDuplicateTask, asynq.ErrTaskIDConflict} {
		enq := &fakeEnqueuer{err: dup, state: asynq.TaskStateActive}
		err := Trigger(context.Background(), enq, "amy-chen", "en", "", time.Minute)
		if !errors.Is(err, ErrInFlight) {
			t.Fatalf("err = %v, want ErrInFlight", err)
		}
		if len(enq.deleted) != 0 {
			t.Fatalf("active task must not be deleted: %v", enq.deleted)
		}
	}
	other := errors.New("redis down")
	if err := Trigger(context.Background(), &fakeEnqueuer{err: other}, "amy-chen", "en", "", time.Minute); !errors.Is(err, other) {
		t.Fatalf("err = %v", err)
	}
}

func TestTriggerReplacesArchivedTask(t *testing.T) {
	enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict, state: asynq.TaskStateArchived}
	if err := Trigger(context.Background(), enq, "amy-chen", "en", "corr-1", time.Minute); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(enq.deleted) != 1 || enq.deleted[0] != tasks.SnapshotTaskID("amy-chen") {
		t.Fatalf("deleted = %v", enq.deleted)
	}
	if len(enq.tasks) != 1 {
		t.Fatalf("expected the task to be enqueued again, got %d", len(enq.tasks))
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	if got := ObjectKey("amy-chen", at); got != "snapshots/amy-chen/20240501T083000Z.png" {
		t.Fatalf("ObjectKey = %q", got)
	}
	if Channel("amy-chen") != "portfolio_notify:amy-chen" {
		t.Fatalf("Channel = %q", Channel("amy-chen"))
	}
}
