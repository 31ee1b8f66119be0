// Package export 负责作品集截图任务的投递与结果通知协议。
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"kidsfolio/internal/tasks"
)

// ErrInFlight 表示同一作品集已有截图任务在排队或执行。
var ErrInFlight = errors.New("snapshot already in progress")

// 快照状态，写入 student_portfolios.snapshot_status。
const (
	StatusQueued = "queued"
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Enqueuer 投递任务并查看、删除同 ID 的旧任务。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// AsynqQueue 把 asynq 的 Client 与 Inspector 组合成 Enqueuer。
type AsynqQueue struct {
	*asynq.Client
	*asynq.Inspector
}

// NewAsynqQueue 使用同一个 Redis 连接配置创建 Client 与 Inspector。
func NewAsynqQueue(opt asynq.RedisConnOpt) AsynqQueue {
	return AsynqQueue{Client: asynq.NewClient(opt), Inspector: asynq.NewInspector(opt)}
}

// Close 关闭 Client 与 Inspector。
func (q AsynqQueue) Close() error {
	return errors.Join(q.Client.Close(), q.Inspector.Close())
}

// Trigger 投递截图任务；同一 slug 已有任务在途时返回 ErrInFlight。
// 已归档（重试耗尽）的旧任务会占住任务 ID，先删除再投递。
func Trigger(ctx context.Context, enq Enqueuer, slug, lang, correlationID string, timeout time.Duration) error {
	task, err := tasks.NewSnapshotTask(slug, lang, correlationID, timeout)
	if err != nil {
		return fmt.Errorf("build snapshot task: %w", err)
	}
	err = enqueue(ctx, enq, task)
	if errors.Is(err, ErrInFlight) && releaseFinished(enq, tasks.SnapshotTaskID(slug)) {
		err = enqueue(ctx, enq, task)
	}
	return err
}

func enqueue(ctx context.Context, enq Enqueuer, task *asynq.Task) error {
	if _, err := enq.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			return ErrInFlight
		}
		return fmt.Errorf("enqueue snapshot task: %w", err)
	}
	return nil
}

// releaseFinished 删除已结束但仍占着 ID 的任务，返回是否可以重新投递。
func releaseFinished(enq Enqueuer, id string) bool {
	info, err := enq.GetTaskInfo(tasks.QueueSnapshots, id)
	if err != nil {
		return errors.Is(err, asynq.ErrTaskNotFound)
	}
	switch info.State {
	case asynq.TaskStateArchived, asynq.TaskStateCompleted:
		err := enq.DeleteTask(tasks.QueueSnapshots, id)
		return err == nil || errors.Is(err, asynq.ErrTaskNotFound)
	default:
		return false
	}
}

// ObjectKey 返回截图在对象存储中的路径。
func ObjectKey(slug string, at time.Time) string {
	return fmt.Sprintf("%s%s.png", ObjectPrefix(slug), at.UTC().Format("20060102T150405Z"))
}

// ObjectPrefix 是某个作品集全部截图的公共前缀。
func ObjectPrefix(slug string) string {
	return fmt.Sprintf("snapshots/%s/", slug)
}

// DownloadName 是浏览器下载截图时的文件名。
func DownloadName(slug string) string {
	return slug + ".png"
}
