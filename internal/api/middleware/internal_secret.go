package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/export"
)

// InternalSecret 保护只给截图 worker 打开的打印页。密钥只从请求头读取。
func InternalSecret(secret string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(secret))
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "print endpoint disabled"})
			return
		}
		got := []byte(strings.TrimSpace(c.GetHeader(export.InternalSecretHeader)))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
