// Package tasks 定义 API 与 worker 之间的异步任务契约。
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePortfolioSnapshot = "portfolio:snapshot"

	// QueueSnapshots 单独成队，worker 只消费这个队列。
	QueueSnapshots = "snapshots"

	snapshotMaxRetry = 2
)

// SnapshotPayload 是一次截图需要的全部信息；页面内容由 worker 打开打印页时实时读取。
type SnapshotPayload struct {
	Slug          string `json:"slug"`
	Lang          string `json:"lang"`
	CorrelationID string `json:"correlation_id"`
}

// SnapshotTaskID 是作品集截图任务的固定 ID，同一 slug 不分语言共用一个。
func SnapshotTaskID(slug string) string {
	return "snapshot:" + strings.TrimSpace(slug)
}

// NewSnapshotTask 构造截图任务。任务 ID 按 slug 固定，同一作品集在排队、执行或等待重试期间
// 再次投递会得到 asynq.ErrTaskIDConflict；任务完成后记录被删除，ID 随即释放。
func NewSnapshotTask(slug, lang, correlationID string, timeout time.Duration) (*asynq.Task, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("snapshot task requires a slug")
	}
	payload, err := json.Marshal(SnapshotPayload{
		Slug:          slug,
		Lang:          lang,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePortfolioSnapshot, payload,
		asynq.Queue(QueueSnapshots),
		asynq.TaskID(SnapshotTaskID(slug)),
		asynq.MaxRetry(snapshotMaxRetry),
		asynq.Timeout(timeout),
	), nil
}

// ParseSnapshotPayload 解码任务参数，缺少 slug 视为坏任务。
func ParseSnapshotPayload(data []byte) (SnapshotPayload, error) {
	var p SnapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode snapshot payload: %w", err)
	}
	if strings.TrimSpace(p.Slug) == "" {
		return p, errors.New("snapshot payload without slug")
	}
	return p, nil
}
