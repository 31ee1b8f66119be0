package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/database"
	"kidsfolio/internal/export"
)

// Subscriber 由 redis.UniversalClient 实现。
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WsHandler 把截图任务的结果从 Redis 频道转发给正在查看作品集的浏览器。
type WsHandler struct {
	portfolios     PortfolioFinder
	subscriber     Subscriber
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
	pingInterval   time.Duration
}

// NewWsHandler 构造 WebSocket 处理器；allowedOrigins 为空时只允许同源。
func NewWsHandler(portfolios PortfolioFinder, subscriber Subscriber, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		portfolios:     portfolios,
		subscriber:     subscriber,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		pingInterval:   30 * time.Second,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// HandleConnection 处理 GET /p/:slug/ws。访问门槛在升级前检查。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	row, err := h.portfolios.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrPortfolioNotFound) {
			NotFound(c, "portfolio not found")
			return
		}
		Internal(c, "internal error")
		return
	}
	if !hasAccess(c, row) {
		Forbidden(c, "portfolio locked")
		return
	}

	log := middleware.LoggerFromContext(c).With(
		slog.String("client_ip", c.ClientIP()),
		slog.String("slug", row.Slug),
	)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	channel := export.Channel(row.Slug)
	pubsub := h.subscriber.Subscribe(ctx, channel)
	defer pubsub.Close()

	// 等到订阅确认后再通知页面，页面收到后才提交导出请求
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Error("subscribe redis channel failed", slog.Any("error", err))
		writeClose(conn, websocket.CloseInternalServerErr, "subscribe failed")
		return
	}
	ack, _ := json.Marshal(export.NotifyMessage{Status: export.MessageSubscribed, Slug: row.Slug})
	if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
		log.Info("write subscribed ack failed", slog.Any("error", err))
		return
	}
	log.Info("subscribed to redis channel", slog.String("channel", channel))

	errCh := make(chan error, 2)
	go h.readLoop(conn, errCh, cancel)
	go h.forwardLoop(ctx, conn, pubsub.Channel(), errCh, cancel, log)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Info("websocket connection closed", slog.Any("error", err))
		} else {
			log.Info("websocket connection closed")
		}
	}
}

// readLoop 只用于检测客户端断开，客户端消息一律忽略。
func (h *WsHandler) readLoop(conn *websocket.Conn, errCh chan<- error, cancel context.CancelFunc) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}
	}
}

func (h *WsHandler) forwardLoop(
	ctx context.Context,
	conn *websocket.Conn,
	ch <-chan *redis.Message,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- fmt.Errorf("pubsub channel closed")
				cancel()
				return
			}

			log.Info("forwarding snapshot notification", slog.String("channel", msg.Channel))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				cancel()
				return
			}
			// 一个连接只服务一次导出，收到最终结果后关闭。
			if isFinalNotification(msg.Payload) {
				writeClose(conn, websocket.CloseNormalClosure, "done")
				errCh <- nil
				cancel()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func isFinalNotification(payload string) bool {
	var msg export.NotifyMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return false
	}
	return msg.Status == export.MessageCompleted || msg.Status == export.MessageError
}
