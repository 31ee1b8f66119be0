package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"kidsfolio/internal/api/middleware"
	"kidsfolio/internal/auth"
	"kidsfolio/internal/database"
)

const refreshTokenCookieName = "kf_refresh_token"

// UserStore 由 *database.UserRepository 实现。
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*database.User, error)
	FindByID(ctx context.Context, id uint) (*database.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string, mustChange bool) error
}

// AuthHandler 处理后台管理员的登录、刷新、改密与退出。没有注册接口，账号只能由 cmd/admin 创建。
type AuthHandler struct {
	users        UserStore
	tokens       *auth.Issuer
	guard        SessionGuard
	cookieDomain string
}

func NewAuthHandler(users UserStore, tokens *auth.Issuer, guard SessionGuard, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		guard:        guard,
		cookieDomain: strings.TrimSpace(cookieDomain),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int    `json:"expires_in"`
	MustChangePassword bool   `json:"must_change_password"`
}

// Login 校验口令并签发令牌。用户不存在与密码错误返回同样的 401。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))

	allowed, err := h.guard.AllowLogin(ctx, c.ClientIP(), req.Username)
	if err != nil {
		logger.Warn("login rate counter failed", slog.Any("error", err))
	}
	if !allowed && err == nil {
		TooManyRequests(c, "rate limit exceeded")
		return
	}
	if h.guard.Locked(ctx, req.Username) {
		TooManyRequests(c, "account temporarily locked")
		return
	}

	user, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Info("login failed")
		h.guard.RecordFailure(ctx, req.Username)
		Unauthorized(c)
		return
	}
	h.guard.Reset(ctx, req.Username)

	h.issue(c, logger, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 用未吊销的刷新令牌换一对新令牌，旧刷新令牌随即吊销。
func (h *AuthHandler) Refresh(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)
	claims, ok := h.liveRefreshClaims(c, logger)
	if !ok {
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		logger.Info("refresh user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if err := h.revoke(c.Request.Context(), claims); err != nil {
		logger.Error("revoke old refresh token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.issue(c, logger, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate 检查新密码长度与确认一致。bcrypt 只取前 72 字节。
func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72),
			validation.NotIn(r.CurrentPassword).Error("must be different from current password")),
		validation.Field(&r.ConfirmPassword, validation.Required,
			validation.In(r.NewPassword).Error("does not match new password")),
	)
}

// ChangePassword 校验当前密码后更新，清除强制改密标记并重新签发令牌。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		logger.Info("change password: user not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		logger.Info("change password: current password mismatch")
		Unauthorized(c)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password: hash failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hashed, false); err != nil {
		logger.Error("change password: update failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	user.MustChangePassword = false

	// 旧的刷新令牌作废，其他设备需要重新登录。
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		if claims, err := h.tokens.Parse(token, auth.TokenTypeRefresh); err == nil {
			if err := h.revoke(ctx, claims); err != nil {
				logger.Error("change password: revoke refresh failed", slog.Any("error", err))
				Internal(c, "internal error")
				return
			}
		}
	}

	h.issue(c, logger, user)
}

// Logout 吊销刷新令牌并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	logger := middleware.LoggerFromContext(c)
	claims, ok := h.liveRefreshClaims(c, logger)
	if !ok {
		return
	}
	if err := h.revoke(c.Request.Context(), claims); err != nil {
		logger.Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.writeRefreshCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// liveRefreshClaims 读取并校验刷新令牌；失败时已经写好响应。
func (h *AuthHandler) liveRefreshClaims(c *gin.Context, logger *slog.Logger) (*auth.Claims, bool) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		Unauthorized(c)
		return nil, false
	}
	claims, err := h.tokens.Parse(token, auth.TokenTypeRefresh)
	if err != nil {
		logger.Info("refresh token rejected", slog.Any("error", err))
		Unauthorized(c)
		return nil, false
	}
	revoked, err := h.guard.Revoked(c.Request.Context(), claims.ID)
	if err != nil {
		logger.Error("refresh token revocation lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	if revoked {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c)
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) revoke(ctx context.Context, claims *auth.Claims) error {
	return h.guard.Revoke(ctx, claims.ID, claims.Remaining(time.Now(), time.Second))
}

func (h *AuthHandler) issue(c *gin.Context, logger *slog.Logger, user *database.User) {
	pair, err := h.tokens.Issue(user.ID, user.MustChangePassword)
	if err != nil {
		logger.Error("issue token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.writeRefreshCookie(c, pair.RefreshToken, int(h.tokens.RefreshTTL().Seconds()))
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:        pair.AccessToken,
		TokenType:          "Bearer",
		ExpiresIn:          int(h.tokens.AccessTTL().Seconds()),
		MustChangePassword: user.MustChangePassword,
	})
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

// writeRefreshCookie 只在 /v1/auth 下发送刷新令牌。
func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/v1/auth",
		Domain:   h.cookieDomain,
		Secure:   isHTTPS(c),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
