package main

import (
	"github.com/cospace/backend/internal/middleware"
	"github.com/cospace/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(), middleware.RequestID())

	// Rate limiter for auth routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "cospace"})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Public browse routes: anonymous callers see public projects only
		browse := api.Group("")
		browse.Use(middleware.OptionalAuth())
		{
			browse.GET("/projects", svc.projectHandler.List)
			browse.GET("/projects/:id", svc.projectHandler.Get)
			browse.GET("/projects/:id/members", svc.memberHandler.List)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)

			// Roles
			protected.GET("/roles", svc.roleHandler.List)

			// Projects (write operations)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Members
			protected.POST("/projects/:id/members", svc.memberHandler.Add)
			protected.PUT("/projects/:id/members/:memberID", svc.memberHandler.ChangeRole)
			protected.DELETE("/projects/:id/members/:memberID", svc.memberHandler.Remove)

			// Change requests
			protected.GET("/projects/:id/change-requests", svc.changeHandler.List)
			protected.POST("/projects/:id/change-requests", svc.changeHandler.Submit)
			protected.POST("/change-requests/:requestID/approve", svc.changeHandler.Approve)
			protected.POST("/change-requests/:requestID/reject", svc.changeHandler.Reject)

			// Audit logs
			protected.GET("/projects/:id/audit-logs", svc.auditLogHandler.List)
		}
	}
}
