package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/api/middleware"
)

// errorBody 是 JSON 接口统一的错误响应，附带 correlation_id 方便对照日志。
type errorBody struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, errorBody{Error: msg, CorrelationID: middleware.GetCorrelationID(c)})
}

func AbortUnauthorized(c *gin.Context) {
	c.Abort()
	Unauthorized(c)
}

func Unauthorized(c *gin.Context)                { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string)      { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)       { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)        { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)        { Error(c, http.StatusConflict, msg) }
func TooManyRequests(c *gin.Context, msg string) { Error(c, http.StatusTooManyRequests, msg) }
func Internal(c *gin.Context, msg string)        { Error(c, http.StatusInternalServerError, msg) }
