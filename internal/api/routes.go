package api

import (
	"github.com/gin-gonic/gin"

	"kidsfolio/internal/api/middleware"
)

// Handlers 汇总需要注册的全部处理器。
type Handlers struct {
	Pages          *PageHandler
	Portfolios     *PortfolioHandler
	Ws             *WsHandler
	Auth           *AuthHandler
	AdminPortfolio *AdminPortfolioHandler
	Content        *ContentHandler
	Bookings       *BookingHandler
}

// RegisterRoutes 注册页面与 /v1 接口。
func RegisterRoutes(router *gin.Engine, h Handlers, tokens middleware.TokenValidator, internalSecret string) {
	pages := router.Group("/p/:slug")
	{
		pages.GET("", h.Pages.ShowPortfolio)
		pages.POST("/unlock", h.Pages.Unlock)
		pages.GET("/blocks/:blockID/media/:index", h.Pages.ActivateMedia)
		pages.GET("/ws", h.Ws.HandleConnection)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/portfolios/:slug", h.Portfolios.GetPortfolio)
		v1.POST("/portfolios/:slug/snapshot", h.Portfolios.TriggerSnapshot)
		v1.GET("/portfolios/:slug/snapshot", h.Portfolios.SnapshotStatus)

		v1.GET("/content/:category", h.Content.ListPublished)
		v1.POST("/bookings", h.Bookings.Submit)

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalSecret(internalSecret))
		{
			internal.GET("/portfolios/:slug/print", h.Pages.PrintPortfolio)
		}

		authMiddleware := middleware.AdminAuth(tokens)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", authMiddleware, h.Auth.Logout)
			authGroup.POST("/change-password", authMiddleware, h.Auth.ChangePassword)
		}

		admin := v1.Group("/admin")
		admin.Use(authMiddleware, middleware.RequirePasswordChanged())
		{
			admin.GET("/portfolios", h.AdminPortfolio.List)
			admin.POST("/portfolios", h.AdminPortfolio.Create)
			admin.GET("/portfolios/:id", h.AdminPortfolio.Get)
			admin.PUT("/portfolios/:id", h.AdminPortfolio.Update)
			admin.DELETE("/portfolios/:id", h.AdminPortfolio.Delete)

			admin.GET("/content/:category", h.Content.ListAll)
			admin.POST("/content/:category", h.Content.Create)
			admin.PUT("/content/:category/:id", h.Content.Update)
			admin.DELETE("/content/:category/:id", h.Content.Delete)

			admin.GET("/bookings", h.Bookings.List)
			admin.PATCH("/bookings/:id", h.Bookings.UpdateStatus)
		}
	}
}
