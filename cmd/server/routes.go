package main

import (
	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/internal/handlers"
	"github.com/openguild/guildpress/internal/middleware"
	"github.com/openguild/guildpress/internal/permissions"
	"gorm.io/gorm"
)

// setupRoutes wires all HTTP routes. It returns the auth handler so main
// can seed the default admin account.
func setupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) *handlers.AuthHandler {
	gate := permissions.Default()

	authHandler := handlers.NewAuthHandler(db, cfg)
	articleHandler := handlers.NewArticleHandler(db, gate)
	applicationHandler := handlers.NewApplicationHandler(db, gate)
	reviewHandler := handlers.NewReviewHandler(db, gate, cfg.Review)
	memberHandler := handlers.NewMemberHandler(db, gate)
	logHandler := handlers.NewSystemLogHandler(db)

	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "guildpress"})
	})

	api := router.Group("/api")

	// Public routes
	public := api.Group("")
	public.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/refresh", authHandler.Refresh)
		public.GET("/auth/config", authHandler.GetAuthConfig)
		public.GET("/published/:slug", articleHandler.GetPublished)
	}

	// Authenticated routes
	authed := api.Group("")
	authed.Use(middleware.AuthRequired(), middleware.AuditLog())
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/auth/me", authHandler.GetCurrentUser)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/articles", articleHandler.List)
		authed.POST("/articles", articleHandler.Create)
		authed.GET("/articles/:id", articleHandler.Get)
		authed.PUT("/articles/:id", articleHandler.Update)
		authed.POST("/articles/:id/transition", articleHandler.Transition)
		authed.GET("/articles/:id/reviews", reviewHandler.ListByArticle)
		authed.POST("/articles/:id/reviews", reviewHandler.Assign)

		authed.POST("/reviews/:id/start", reviewHandler.Start)
		authed.POST("/reviews/:id/submit", reviewHandler.Submit)
		authed.POST("/reviews/:id/decline", reviewHandler.Decline)
		authed.DELETE("/reviews/:id", reviewHandler.Remove)

		authed.GET("/applications", applicationHandler.List)
		authed.POST("/applications", applicationHandler.Create)
		authed.GET("/applications/:id", applicationHandler.Get)
		authed.PUT("/applications/:id", applicationHandler.Update)
		authed.POST("/applications/:id/submit", applicationHandler.Submit)
		authed.POST("/applications/:id/review", applicationHandler.MoveToReview)
		authed.POST("/applications/:id/approve", applicationHandler.Approve)
		authed.POST("/applications/:id/reject", applicationHandler.Reject)

		authed.GET("/members", memberHandler.List)
		authed.GET("/members/:id", memberHandler.Get)
		authed.PUT("/members/:id", memberHandler.UpdateProfile)
	}

	// Admin routes
	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.AuditLog(),
		middleware.PermissionRequired(gate, permissions.MemberManage))
	{
		admin.PUT("/members/:id/roles", memberHandler.SetRoles)
		admin.PUT("/members/:id/active", memberHandler.SetActive)
		admin.GET("/logs", logHandler.List)
	}

	return authHandler
}
