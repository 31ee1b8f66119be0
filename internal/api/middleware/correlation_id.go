package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kidsfolio/internal/export"
)

const (
	correlationIDKey    = "correlationID"
	maxCorrelationIDLen = 64
)

// CorrelationID 沿用上游传入的 X-Correlation-ID（worker 打开打印页时会带上任务的 ID），
// 缺失或过长时重新生成。
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(export.CorrelationIDHeader)
		if id == "" || len(id) > maxCorrelationIDLen {
			id = uuid.NewString()
		}
		c.Set(correlationIDKey, id)
		c.Header(export.CorrelationIDHeader, id)
		c.Next()
	}
}

// GetCorrelationID 从上下文中取出 Correlation ID。
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}
