package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/database"
	"kidsfolio/internal/export"
	"kidsfolio/internal/portfolio"
)

// PortfolioAdminStore 由 *database.PortfolioRepository 实现。
type PortfolioAdminStore interface {
	List(ctx context.Context) ([]database.StudentPortfolio, error)
	FindByID(ctx context.Context, id uint) (*database.StudentPortfolio, error)
	FindBySlug(ctx context.Context, slug string) (*database.StudentPortfolio, error)
	Create(ctx context.Context, row *database.StudentPortfolio) error
	Update(ctx context.Context, row *database.StudentPortfolio) error
	Delete(ctx context.Context, id uint) error
}

// PrefixDeleter 由 *storage.Client 实现。
type PrefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// AdminPortfolioHandler 提供后台作品集 CRUD。
type AdminPortfolioHandler struct {
	portfolios PortfolioAdminStore
	snapshots  PrefixDeleter
}

func NewAdminPortfolioHandler(portfolios PortfolioAdminStore, snapshots PrefixDeleter) *AdminPortfolioHandler {
	return &AdminPortfolioHandler{portfolios: portfolios, snapshots: snapshots}
}

type portfolioRequest struct {
	Slug           string          `json:"slug"`
	StudentName    string          `json:"student_name"`
	StudentTitle   string          `json:"student_title"`
	SummaryBio     string          `json:"summary_bio"`
	HeroImageURL   string          `json:"hero_image_url"`
	AvatarURL      string          `json:"avatar_url"`
	AccessPassword string          `json:"access_password"`
	Theme          string          `json:"theme"`
	SkillLayout    string          `json:"skill_layout"`
	ContentBlocks  json.RawMessage `json:"content_blocks"`
	Skills         json.RawMessage `json:"skills"`
}

func (r portfolioRequest) draft() portfolio.Draft {
	return portfolio.Draft{
		Slug:           r.Slug,
		StudentName:    r.StudentName,
		Theme:          r.Theme,
		SkillLayout:    r.SkillLayout,
		AccessPassword: r.AccessPassword,
	}
}

// toRow 校验并转换请求：内容块补齐 id，技能数据必须能被解析。
func (r portfolioRequest) toRow() (database.StudentPortfolio, error) {
	r.Slug = strings.TrimSpace(r.Slug)
	if err := r.draft().Validate(); err != nil {
		return database.StudentPortfolio{}, err
	}

	blocks, err := portfolio.NormalizeBlocks(r.ContentBlocks)
	if err != nil {
		return database.StudentPortfolio{}, err
	}

	var skills datatypes.JSON
	if len(r.Skills) > 0 {
		if _, err := portfolio.DecodeSkills(r.Skills, r.SkillLayout); err != nil {
			return database.StudentPortfolio{}, err
		}
		skills = datatypes.JSON(r.Skills)
	}

	themeConfig, err := json.Marshal(map[string]string{
		"theme":        r.Theme,
		"skill_layout": r.SkillLayout,
	})
	if err != nil {
		return database.StudentPortfolio{}, err
	}

	return database.StudentPortfolio{
		Slug:           r.Slug,
		StudentName:    strings.TrimSpace(r.StudentName),
		StudentTitle:   r.StudentTitle,
		SummaryBio:     r.SummaryBio,
		HeroImageURL:   r.HeroImageURL,
		AvatarURL:      r.AvatarURL,
		AccessPassword: r.AccessPassword,
		ThemeConfig:    datatypes.JSON(themeConfig),
		ContentBlocks:  datatypes.JSON(blocks),
		Skills:         skills,
	}, nil
}

func (h *AdminPortfolioHandler) List(c *gin.Context) {
	rows, err := h.portfolios.List(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("list portfolios failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	out := make([]portfolioResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newPortfolioResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *AdminPortfolioHandler) Get(c *gin.Context) {
	row, ok := h.findByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(*row))
}

func (h *AdminPortfolioHandler) Create(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	row, err := req.toRow()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("slug", row.Slug))

	if _, err := h.portfolios.FindBySlug(ctx, row.Slug); err == nil {
		Conflict(c, "slug already taken")
		return
	} else if !errors.Is(err, database.ErrPortfolioNotFound) {
		logger.Error("check slug failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.portfolios.Create(ctx, &row); err != nil {
		logger.Error("create portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	logger.Info("portfolio created", slog.Uint64("portfolio_id", uint64(row.ID)))
	c.JSON(http.StatusCreated, newPortfolioResponse(row))
}

func (h *AdminPortfolioHandler) Update(c *gin.Context) {
	existing, ok := h.findByID(c)
	if !ok {
		return
	}
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	row, err := req.toRow()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("portfolio_id", uint64(existing.ID)))

	if row.Slug != existing.Slug {
		if _, err := h.portfolios.FindBySlug(ctx, row.Slug); err == nil {
			Conflict(c, "slug already taken")
			return
		} else if !errors.Is(err, database.ErrPortfolioNotFound) {
			logger.Error("check slug failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}

	row.Model = existing.Model
	if err := h.portfolios.Update(ctx, &row); err != nil {
		logger.Error("update portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	saved, err := h.portfolios.FindByID(ctx, existing.ID)
	if err != nil {
		logger.Error("reload portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(*saved))
}

// Delete 删除作品集并清理其全部截图。
func (h *AdminPortfolioHandler) Delete(c *gin.Context) {
	row, ok := h.findByID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("slug", row.Slug))

	if err := h.portfolios.Delete(ctx, row.ID); err != nil {
		logger.Error("delete portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if h.snapshots != nil {
		if err := h.snapshots.DeletePrefix(ctx, export.ObjectPrefix(row.Slug)); err != nil {
			logger.Warn("delete portfolio snapshots failed", slog.Any("error", err))
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminPortfolioHandler) findByID(c *gin.Context) (*database.StudentPortfolio, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	row, err := h.portfolios.FindByID(c.Request.Context(), id)
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

// parseID 解析 :id 路径参数，失败时写出 400。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
