package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/database"
	"kidsfolio/internal/i18n"
	"kidsfolio/internal/portfolio"
	"kidsfolio/internal/render"
)

// accessCookiePrefix 加上 slug 即为解锁 Cookie 名，值为查看者输入的访问密码。
const accessCookiePrefix = "kf_access_"

// PortfolioFinder 由 *database.PortfolioRepository 实现。
type PortfolioFinder interface {
	FindBySlug(ctx context.Context, slug string) (*database.StudentPortfolio, error)
}

// Translator 由 *translate.Overlay 实现。
type Translator interface {
	Translate(ctx context.Context, v portfolio.View, lang string) (portfolio.View, error)
}

// PageHandler 负责作品集的服务端渲染页面。
type PageHandler struct {
	portfolios   PortfolioFinder
	translator   Translator
	labels       *i18n.Bundle
	policy       *bluemonday.Policy
	sourceLang   string
	cookieDomain string
	logger       *slog.Logger
}

// NewPageHandler 构造页面处理器。sourceLang 是作品集内容的原始语言。
func NewPageHandler(portfolios PortfolioFinder, translator Translator, labels *i18n.Bundle, sourceLang, cookieDomain string, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		portfolios:   portfolios,
		translator:   translator,
		labels:       labels,
		policy:       render.NewEmbedPolicy(),
		sourceLang:   sourceLang,
		cookieDomain: cookieDomain,
		logger:       logger,
	}
}

// ShowPortfolio 渲染 GET /p/:slug。
func (h *PageHandler) ShowPortfolio(c *gin.Context) {
	row, view, labels, ok := h.load(c)
	if !ok {
		return
	}
	if !h.unlocked(c, row) {
		h.writeHTML(c, http.StatusOK, render.GatePage(view.Tokens(), labels, row.Slug, false))
		return
	}

	view, warning := h.localize(c, view, labels)
	ctx := h.renderContext(view, labels, false)
	ctx.Embeds = parsePlay(c.Query("play"))

	doc := render.Page(ctx, view, render.PageOptions{
		AltLang:     h.altLang(labels.Lang()),
		Warning:     warning,
		SnapshotURL: snapshotPath(row.Slug, labels.Lang()),
		NotifyURL:   "/p/" + url.PathEscape(row.Slug) + "/ws",
	})
	h.writeHTML(c, http.StatusOK, doc)
}

// Unlock 处理 POST /p/:slug/unlock：密码正确时写入 Cookie 并跳回页面。
func (h *PageHandler) Unlock(c *gin.Context) {
	row, view, labels, ok := h.load(c)
	if !ok {
		return
	}

	attempt := c.PostForm("password")
	if !portfolio.Unlock(row.AccessPassword, attempt) {
		h.requestLogger(c).Info("portfolio unlock failed", slog.String("slug", row.Slug))
		h.writeHTML(c, http.StatusUnauthorized, render.GatePage(view.Tokens(), labels, row.Slug, true))
		return
	}

	// 会话 Cookie，浏览器关闭后需要重新输入
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     accessCookiePrefix + row.Slug,
		Value:    attempt,
		Path:     "/",
		Domain:   strings.TrimSpace(h.cookieDomain),
		HttpOnly: true,
		Secure:   isHTTPS(c),
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusSeeOther, "/p/"+url.PathEscape(row.Slug)+"?lang="+url.QueryEscape(labels.Lang()))
}

// ActivateMedia 处理 GET /p/:slug/blocks/:blockID/media/:index，返回替换占位按钮的内嵌片段。
func (h *PageHandler) ActivateMedia(c *gin.Context) {
	row, view, labels, ok := h.load(c)
	if !ok {
		return
	}
	if !h.unlocked(c, row) {
		Forbidden(c, "portfolio locked")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		BadRequest(c, "invalid media index")
		return
	}

	item, found := findMedia(view.Blocks, c.Param("blockID"), index)
	if !found || item.Kind != portfolio.MediaEmbed {
		NotFound(c, "media not found")
		return
	}

	ctx := h.renderContext(view, labels, false)
	h.writeHTML(c, http.StatusOK, render.EmbedFragment(ctx, item.Value))
}

// PrintPortfolio 处理内部截图路由：跳过访问门槛，不渲染交互控件。
func (h *PageHandler) PrintPortfolio(c *gin.Context) {
	_, view, labels, ok := h.load(c)
	if !ok {
		return
	}
	view, warning := h.localize(c, view, labels)
	ctx := h.renderContext(view, labels, true)
	h.writeHTML(c, http.StatusOK, render.Page(ctx, view, render.PageOptions{Warning: warning}))
}

// load 读取作品集与对应语言的界面文案；失败时已写出响应。
func (h *PageHandler) load(c *gin.Context) (*database.StudentPortfolio, portfolio.View, i18n.Labels, bool) {
	labels := h.labels.For(h.requestLang(c))

	row, err := h.portfolios.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrPortfolioNotFound) {
			h.writeHTML(c, http.StatusNotFound, render.NotFoundPage(labels))
			return nil, portfolio.View{}, nil, false
		}
		h.requestLogger(c).Error("load portfolio failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, portfolio.View{}, nil, false
	}

	view, err := portfolio.FromRecord(*row)
	if err != nil {
		h.requestLogger(c).Error("decode portfolio failed", slog.String("slug", row.Slug), slog.Any("error", err))
		Internal(c, "internal error")
		return nil, portfolio.View{}, nil, false
	}
	return row, view, labels, true
}

// localize 按界面语言翻译内容；失败时保留原文并返回提示文案。
func (h *PageHandler) localize(c *gin.Context, view portfolio.View, labels i18n.Labels) (portfolio.View, string) {
	lang := labels.Lang()
	if lang == h.sourceLang || h.translator == nil {
		return view, ""
	}
	translated, err := h.translator.Translate(c.Request.Context(), view, lang)
	if err != nil {
		h.requestLogger(c).Warn("portfolio translation failed",
			slog.String("slug", view.Slug),
			slog.String("lang", lang),
			slog.Any("error", err),
		)
		return view, labels.T(i18n.KeyTranslationWarning)
	}
	return translated, ""
}

func (h *PageHandler) renderContext(view portfolio.View, labels i18n.Labels, snapshot bool) render.Context {
	return render.Context{
		Tokens:   view.Tokens(),
		Labels:   labels,
		Slug:     view.Slug,
		Policy:   h.policy,
		Snapshot: snapshot,
	}
}

func (h *PageHandler) unlocked(c *gin.Context, row *database.StudentPortfolio) bool {
	return hasAccess(c, row)
}

// hasAccess 每次请求都用 Cookie 中的密码重新比对，修改密码后旧 Cookie 自动失效。
func hasAccess(c *gin.Context, row *database.StudentPortfolio) bool {
	if !portfolio.Gated(row.AccessPassword) {
		return true
	}
	attempt, err := c.Cookie(accessCookiePrefix + row.Slug)
	if err != nil {
		return false
	}
	return portfolio.Unlock(row.AccessPassword, attempt)
}

func (h *PageHandler) requestLang(c *gin.Context) string {
	if lang := strings.ToLower(strings.TrimSpace(c.Query("lang"))); i18n.Supported(lang) {
		return lang
	}
	return h.sourceLang
}

func (h *PageHandler) altLang(lang string) string {
	if lang == i18n.LangZH {
		return i18n.LangEN
	}
	return i18n.LangZH
}

func (h *PageHandler) writeHTML(c *gin.Context, status int, doc *html.Node) {
	var buf bytes.Buffer
	if err := render.Render(&buf, doc); err != nil {
		h.requestLogger(c).Error("render html failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) requestLogger(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	return h.logger
}

// parsePlay 解析无脚本回退的 ?play=<blockID>:<index>。
func parsePlay(raw string) map[string]render.EmbedState {
	sep := strings.LastIndex(raw, ":")
	if sep <= 0 {
		return nil
	}
	index, err := strconv.Atoi(raw[sep+1:])
	if err != nil || index < 0 {
		return nil
	}
	return map[string]render.EmbedState{raw[:sep]: {index: true}}
}

func findMedia(blocks []portfolio.Block, blockID string, index int) (portfolio.MediaItem, bool) {
	for i, b := range blocks {
		node, ok := b.(portfolio.TimelineNode)
		if !ok || portfolio.BlockKey(b, i) != blockID {
			continue
		}
		if index >= len(node.Media) {
			return portfolio.MediaItem{}, false
		}
		return node.Media[index], true
	}
	return portfolio.MediaItem{}, false
}

func snapshotPath(slug, lang string) string {
	return "/v1/portfolios/" + url.PathEscape(slug) + "/snapshot?lang=" + url.QueryEscape(lang)
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
