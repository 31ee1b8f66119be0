package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/content"
	"kidsfolio/internal/database"
)

// ContentHandler 提供官网栏目内容的公开读取与后台维护接口。
type ContentHandler struct {
	service *content.Service
}

func NewContentHandler(service *content.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// ListPublished 处理 GET /v1/content/:category。
func (h *ContentHandler) ListPublished(c *gin.Context) {
	h.list(c, true)
}

// ListAll 处理后台 GET /v1/admin/content/:category，包含未发布条目。
func (h *ContentHandler) ListAll(c *gin.Context) {
	h.list(c, false)
}

func (h *ContentHandler) list(c *gin.Context, publishedOnly bool) {
	var q content.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := q.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var (
		page content.Page[content.Entry]
		err  error
	)
	if publishedOnly {
		page, err = h.service.ListPublished(c.Request.Context(), c.Param("category"), q)
	} else {
		page, err = h.service.ListAll(c.Request.Context(), c.Param("category"), q)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContentHandler) Create(c *gin.Context) {
	var d content.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}
	entry, err := h.service.Create(c.Request.Context(), c.Param("category"), d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var d content.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := d.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}
	entry, err := h.service.Update(c.Request.Context(), c.Param("category"), id, d)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("category"), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContentHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrUnknownCategory):
		NotFound(c, "unknown category")
	case errors.Is(err, database.ErrContentNotFound):
		NotFound(c, "content not found")
	default:
		middleware.LoggerFromContext(c).Error("content request failed",
			slog.String("category", c.Param("category")),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
	}
}
