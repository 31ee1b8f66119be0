package tasks

import (
	"testing"
	"time"
)

func TestSnapshotTaskPayload(t *testing.T) {
	task, err := NewSnapshotTask(" amy-chen ", "zh", "corr-1", time.Minute)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TypePortfolioSnapshot {
		t.Fatalf("type = %q", task.Type())
	}

	p, err := ParseSnapshotPayload(task.Payload())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Slug != "amy-chen" || p.Lang != "zh" || p.CorrelationID != "corr-1" {
		t.Fatalf("unexpected payload %#v", p)
	}

	if _, err := NewSnapshotTask("  ", "en", "", time.Minute); err == nil {
		t.Fatalf("empty slug should be rejected")
	}
	if _, err := ParseSnapshotPayload([]byte(`{"lang":"en"}`)); err == nil {
		t.Fatalf("payload without slug should be rejected")
	}
	if _, err := ParseSnapshotPayload([]byte(`{`)); err == nil {
		t.Fatalf("malformed payload should be rejected")
	}
}

func TestSnapshotTaskID(t *testing.T) {
	if got := SnapshotTaskID(" amy-chen "); got != "snapshot:amy-chen" {
		t.Fatalf("SnapshotTaskID = %q", got)
	}
	if SnapshotTaskID("amy-chen") == SnapshotTaskID("bob-li") {
		t.Fatalf("different slugs must not share a task id")
	}
}
