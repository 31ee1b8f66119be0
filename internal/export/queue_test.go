package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"kidsfolio/internal/tasks"
)

func newRedisQueue(t *testing.T) AsynqQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	q := NewAsynqQueue(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestTriggerOneSnapshotPerSlug(t *testing.T) {
	q := newRedisQueue(t)
	ctx := context.Background()

	if err := Trigger(ctx, q, "amy-chen", "en", "corr-1", time.Minute); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if err := Trigger(ctx, q, "amy-chen", "en", "corr-2", time.Minute); !errors.Is(err, ErrInFlight) {
		t.Fatalf("second trigger err = %v, want ErrInFlight", err)
	}
	if err := Trigger(ctx, q, "amy-chen", "zh", "corr-3", time.Minute); !errors.Is(err, ErrInFlight) {
		t.Fatalf("other language err = %v, want ErrInFlight", err)
	}
	if err := Trigger(ctx, q, "bob-li", "en", "corr-4", time.Minute); err != nil {
		t.Fatalf("other slug: %v", err)
	}

	info, err := q.GetTaskInfo(tasks.QueueSnapshots, tasks.SnapshotTaskID("amy-chen"))
	if err != nil {
		t.Fatalf("GetTaskInfo: %v", err)
	}
	p, err := tasks.ParseSnapshotPayload(info.Payload)
	if err != nil || p.CorrelationID != "corr-1" {
		t.Fatalf("queued payload = %+v, %v", p, err)
	}
}

func TestTriggerAfterArchivedSnapshot(t *testing.T) {
	q := newRedisQueue(t)
	ctx := context.Background()

	if err := Trigger(ctx, q, "amy-chen", "en", "corr-1", time.Minute); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if err := q.ArchiveTask(tasks.QueueSnapshots, tasks.SnapshotTaskID("amy-chen")); err != nil {
		t.Fatalf("ArchiveTask: %v", err)
	}
	if err := Trigger(ctx, q, "amy-chen", "zh", "corr-2", time.Minute); err != nil {
		t.Fatalf("trigger after archive: %v", err)
	}

	info, err := q.GetTaskInfo(tasks.QueueSnapshots, tasks.SnapshotTaskID("amy-chen"))
	if err != nil {
		t.Fatalf("GetTaskInfo: %v", err)
	}
	if info.State != asynq.TaskStatePending {
		t.Fatalf("state = %v, want pending", info.State)
	}
}
