package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"kidsfolio/internal/database"
	"kidsfolio/internal/errcode"
	"kidsfolio/internal/export"
	"kidsfolio/internal/metrics"
	"kidsfolio/internal/tasks"
)

// PortfolioStore 是截图任务需要的作品集读写能力。
type PortfolioStore interface {
	FindBySlug(ctx context.Context, slug string) (*database.StudentPortfolio, error)
	UpdateSnapshot(ctx context.Context, id uint, objectKey, status string) error
}

// ObjectStore 由 *storage.Client 实现。
type ObjectStore interface {
	PutPNG(ctx context.Context, key string, data []byte) error
	DownloadURL(ctx context.Context, objectKey string, ttl time.Duration, filename string) (string, error)
}

// Publisher 由 redis.UniversalClient 实现。
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Capturer 打开页面并返回作品集主体的 PNG 截图。
type Capturer interface {
	Capture(ctx context.Context, targetURL string, headers map[string]string) ([]byte, error)
}

// SnapshotHandler 负责消费作品集截图任务。
type SnapshotHandler struct {
	portfolios      PortfolioStore
	storage         ObjectStore
	publisher       Publisher
	capturer        Capturer
	logger          *slog.Logger
	internalSecret  string
	internalBaseURL string
	linkTTL         time.Duration
	now             func() time.Time
	finalAttempt    func(ctx context.Context) bool
}

// NewSnapshotHandler 创建任务处理器。
func NewSnapshotHandler(
	portfolios PortfolioStore,
	storage ObjectStore,
	publisher Publisher,
	capturer Capturer,
	logger *slog.Logger,
	internalSecret string,
	internalBaseURL string,
	linkTTL time.Duration,
) *SnapshotHandler {
	return &SnapshotHandler{
		portfolios:      portfolios,
		storage:         storage,
		publisher:       publisher,
		capturer:        capturer,
		logger:          logger,
		internalSecret:  internalSecret,
		internalBaseURL: strings.TrimRight(strings.TrimSpace(internalBaseURL), "/"),
		linkTTL:         linkTTL,
		now:             time.Now,
		finalAttempt:    isFinalAsynqAttempt,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *SnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	payload, err := tasks.ParseSnapshotPayload(t.Payload())
	if err != nil {
		log.Error("bad snapshot payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("slug", payload.Slug),
	)
	log.Info("starting portfolio snapshot task")

	row, err := h.portfolios.FindBySlug(ctx, payload.Slug)
	if err != nil {
		if errors.Is(err, database.ErrPortfolioNotFound) {
			log.Warn("portfolio not found, skipping task")
			h.notifyError(ctx, log, payload, errcode.PortfolioMissing, "portfolio not found")
			return nil
		}
		log.Error("query portfolio failed", slog.Any("error", err))
		return err
	}

	failCode := errcode.SystemError
	start := h.now()
	defer func() {
		if retErr == nil {
			metrics.ObserveSnapshot("success", time.Since(start).Seconds())
			return
		}
		if !h.finalAttempt(ctx) {
			return
		}
		metrics.ObserveSnapshot("failure", time.Since(start).Seconds())
		if err := h.portfolios.UpdateSnapshot(ctx, row.ID, "", export.StatusFailed); err != nil {
			log.Error("mark snapshot failed", slog.Any("error", err))
		}
		h.notifyError(ctx, log, payload, failCode, strings.TrimSpace(retErr.Error()))
	}()

	png, err := h.capturer.Capture(ctx, h.printURL(payload), map[string]string{
		export.InternalSecretHeader: h.internalSecret,
		export.CorrelationIDHeader:  payload.CorrelationID,
	})
	if err != nil {
		log.Error("capture portfolio failed", slog.Any("error", err))
		failCode = errcode.CaptureFailed
		return err
	}

	objectName := export.ObjectKey(row.Slug, h.now())
	if err := h.storage.PutPNG(ctx, objectName, png); err != nil {
		log.Error("upload snapshot to minio failed", slog.Any("error", err))
		failCode = errcode.UploadFailed
		return err
	}

	if err := h.portfolios.UpdateSnapshot(ctx, row.ID, objectName, export.StatusDone); err != nil {
		log.Error("update portfolio snapshot failed", slog.Any("error", err))
		return err
	}

	link, err := h.storage.DownloadURL(ctx, objectName, h.linkTTL, export.DownloadName(row.Slug))
	if err != nil {
		log.Error("generate snapshot link failed", slog.Any("error", err))
		return err
	}

	notify := export.NotifyMessage{
		Status:        export.MessageCompleted,
		Slug:          row.Slug,
		CorrelationID: payload.CorrelationID,
		URL:           link,
		ErrorCode:     errcode.OK,
	}
	if err := h.publish(ctx, notify); err != nil {
		// 截图已保存，查看者可以通过状态接口取回，不再重试整个任务
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("portfolio snapshot task completed", slog.String("object", objectName))
	return nil
}

func (h *SnapshotHandler) printURL(p tasks.SnapshotPayload) string {
	u := fmt.Sprintf("%s/v1/internal/portfolios/%s/print", h.internalBaseURL, url.PathEscape(p.Slug))
	if p.Lang != "" {
		u += "?lang=" + url.QueryEscape(p.Lang)
	}
	return u
}

func (h *SnapshotHandler) notifyError(ctx context.Context, log *slog.Logger, p tasks.SnapshotPayload, code int, msg string) {
	notify := export.NotifyMessage{
		Status:        export.MessageError,
		Slug:          p.Slug,
		CorrelationID: p.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  msg,
		Retryable:     errcode.Retryable(code),
	}
	if err := h.publish(ctx, notify); err != nil {
		log.Error("publish snapshot error notification failed", slog.Any("error", err))
	}
}

func (h *SnapshotHandler) publish(ctx context.Context, notify export.NotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := export.Channel(notify.Slug)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
