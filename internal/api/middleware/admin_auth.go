package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kidsfolio/internal/auth"
)

const (
	userIDKey             = "userID"
	mustChangePasswordKey = "mustChangePassword"
)

// TokenValidator 由 *auth.Issuer 实现。
type TokenValidator interface {
	Parse(tokenString, wantType string) (*auth.Claims, error)
}

// AdminAuth 校验 Bearer 访问令牌，把管理员 ID 与改密标记放进上下文。
func AdminAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(token), auth.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(mustChangePasswordKey, claims.MustChangePassword)
		c.Next()
	}
}

// RequirePasswordChanged 拦截仍在使用 cmd/admin 初始密码的管理员，只看令牌声明，不查库。
func RequirePasswordChanged() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(mustChangePasswordKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "password change required"})
			return
		}
		c.Next()
	}
}

// UserIDFromContext 返回 AdminAuth 注入的管理员 ID。
func UserIDFromContext(c *gin.Context) (uint, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := id.(uint)
	return uid, ok && uid != 0
}
