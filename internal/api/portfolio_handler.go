package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/database"
	"kidsfolio/internal/export"
	"kidsfolio/internal/i18n"
)

// SnapshotStore 由 *database.PortfolioRepository 实现。
type SnapshotStore interface {
	FindBySlug(ctx context.Context, slug string) (*database.StudentPortfolio, error)
	UpdateSnapshot(ctx context.Context, id uint, objectKey, status string) error
}

// LinkSigner 由 *storage.Client 实现。
type LinkSigner interface {
	DownloadURL(ctx context.Context, objectKey string, ttl time.Duration, filename string) (string, error)
}

// PortfolioHandler 提供作品集 JSON 读取与截图导出接口。
type PortfolioHandler struct {
	portfolios      SnapshotStore
	enqueuer        export.Enqueuer
	links           LinkSigner
	sourceLang      string
	snapshotTimeout time.Duration
	linkTTL         time.Duration
	logger          *slog.Logger
}

func NewPortfolioHandler(portfolios SnapshotStore, enqueuer export.Enqueuer, links LinkSigner, sourceLang string, snapshotTimeout, linkTTL time.Duration, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios:      portfolios,
		enqueuer:        enqueuer,
		links:           links,
		sourceLang:      sourceLang,
		snapshotTimeout: snapshotTimeout,
		linkTTL:         linkTTL,
		logger:          logger,
	}
}

// portfolioResponse 是整行记录的 JSON 形式，access_password 也会返回（既有行为）。
type portfolioResponse struct {
	ID             uint            `json:"id"`
	Slug           string          `json:"slug"`
	StudentName    string          `json:"student_name"`
	StudentTitle   string          `json:"student_title"`
	SummaryBio     string          `json:"summary_bio"`
	HeroImageURL   string          `json:"hero_image_url"`
	AvatarURL      string          `json:"avatar_url"`
	AccessPassword string          `json:"access_password"`
	ThemeConfig    json.RawMessage `json:"theme_config"`
	ContentBlocks  json.RawMessage `json:"content_blocks"`
	Skills         json.RawMessage `json:"skills"`
	SnapshotStatus string          `json:"snapshot_status,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newPortfolioResponse(row database.StudentPortfolio) portfolioResponse {
	return portfolioResponse{
		ID:             row.ID,
		Slug:           row.Slug,
		StudentName:    row.StudentName,
		StudentTitle:   row.StudentTitle,
		SummaryBio:     row.SummaryBio,
		HeroImageURL:   row.HeroImageURL,
		AvatarURL:      row.AvatarURL,
		AccessPassword: row.AccessPassword,
		ThemeConfig:    rawOrNull(row.ThemeConfig),
		ContentBlocks:  rawOrNull(row.ContentBlocks),
		Skills:         rawOrNull(row.Skills),
		SnapshotStatus: row.SnapshotStatus,
		UpdatedAt:      row.UpdatedAt,
	}
}

func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

// GetPortfolio 处理 GET /v1/portfolios/:slug。
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	row, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(*row))
}

type snapshotResponse struct {
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id,omitempty"`
	URL           string `json:"url,omitempty"`
}

// TriggerSnapshot 处理 POST /v1/portfolios/:slug/snapshot：同一作品集已有任务在途时返回 409。
func (h *PortfolioHandler) TriggerSnapshot(c *gin.Context) {
	row, ok := h.find(c)
	if !ok {
		return
	}
	if !hasAccess(c, row) {
		Forbidden(c, "portfolio locked")
		return
	}

	lang := strings.ToLower(strings.TrimSpace(c.Query("lang")))
	if lang == "" {
		lang = h.sourceLang
	}
	if !i18n.Supported(lang) {
		BadRequest(c, "unsupported lang")
		return
	}

	ctx := c.Request.Context()
	correlationID := middleware.GetCorrelationID(c)
	logger := middleware.LoggerFromContext(c).With(slog.String("slug", row.Slug), slog.String("lang", lang))

	if err := export.Trigger(ctx, h.enqueuer, row.Slug, lang, correlationID, h.snapshotTimeout); err != nil {
		if errors.Is(err, export.ErrInFlight) {
			logger.Info("snapshot already in flight")
			Conflict(c, "snapshot already in progress")
			return
		}
		logger.Error("enqueue snapshot failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.portfolios.UpdateSnapshot(ctx, row.ID, "", export.StatusQueued); err != nil {
		logger.Warn("mark snapshot queued failed", slog.Any("error", err))
	}

	logger.Info("snapshot task enqueued")
	c.JSON(http.StatusAccepted, snapshotResponse{Status: export.StatusQueued, CorrelationID: correlationID})
}

// SnapshotStatus 处理 GET /v1/portfolios/:slug/snapshot，完成时附带短期下载地址。
func (h *PortfolioHandler) SnapshotStatus(c *gin.Context) {
	row, ok := h.find(c)
	if !ok {
		return
	}
	if !hasAccess(c, row) {
		Forbidden(c, "portfolio locked")
		return
	}

	resp := snapshotResponse{Status: row.SnapshotStatus}
	if row.SnapshotStatus == export.StatusDone && row.SnapshotKey != "" {
		link, err := h.links.DownloadURL(c.Request.Context(), row.SnapshotKey, h.linkTTL, export.DownloadName(row.Slug))
		if err != nil {
			middleware.LoggerFromContext(c).Error("generate snapshot link failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
		resp.URL = link
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PortfolioHandler) find(c *gin.Context) (*database.StudentPortfolio, bool) {
	row, err := h.portfolios.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrPortfolioNotFound) {
			NotFound(c, "portfolio not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("load portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	return row, true
}
