package routes

import (
	"scrapedeck/internal/api/handlers"
	"scrapedeck/internal/api/middleware"
	"scrapedeck/internal/config"
	"scrapedeck/internal/migrate"
	"scrapedeck/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) {
	// Initialize services
	authService := services.NewAuthService(db, cfg, log)
	sessionService := services.NewSessionService(db, log)
	tokenService := services.NewTokenService(db, cfg, log)
	permService := services.NewPermissionService(db)
	userService := services.NewUserService(db, authService)
	resourceService := services.NewResourceService(db, permService)
	auditService := services.NewAuditService(db, log)
	backupService := migrate.NewBackupService(cfg.Paths.Backups)

	// Either identity surface authenticates a request
	resolver := services.ChainResolver{
		sessionService,
		services.NewAccessTokenResolver(tokenService, db),
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService, sessionService, tokenService, auditService, cfg)
	userHandler := handlers.NewUserHandler(userService, authService, permService, tokenService)
	resourceHandler := handlers.NewResourceHandler(resourceService)
	backupHandler := handlers.NewBackupHandler(backupService, cfg)

	// Middleware
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.ErrorHandler())

	// Public routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"message": "scrapedeck API is running",
			})
		})

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(resolver))
	{
		// Auth routes (protected)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.GetMe)
		protected.GET("/auth/audit", authHandler.GetAuditLog)

		// User management routes
		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireRole(permService, services.RoleAdmin), userHandler.GetUsers)
			users.GET("/sessions", userHandler.GetSessions)
			users.GET("/:id", middleware.RequireRole(permService, services.RoleAdmin), userHandler.GetUser)
			users.POST("", middleware.RequireRole(permService, services.RoleAdmin), userHandler.CreateUser)
			users.PUT("/:id", middleware.RequireRole(permService, services.RoleAdmin), userHandler.UpdateUser)
			users.DELETE("/:id", middleware.RequireRole(permService, services.RoleAdmin), userHandler.DeleteUser)
			users.POST("/:id/password", userHandler.UpdatePassword)
			users.POST("/:id/revoke-tokens", userHandler.RevokeTokens)
		}

		// Article routes
		articles := protected.Group("/articles")
		{
			articles.GET("", middleware.RequireRole(permService, services.RoleViewer), resourceHandler.GetArticles)
			articles.PUT("/:id", middleware.RequireRole(permService, services.RoleUser), resourceHandler.UpdateArticle)
			articles.DELETE("/:id", middleware.RequireRole(permService, services.RoleUser), resourceHandler.DeleteArticle)
		}

		// Scraper profile routes
		profiles := protected.Group("/profiles")
		{
			profiles.GET("", middleware.RequireRole(permService, services.RoleViewer), resourceHandler.GetProfiles)
			profiles.POST("", middleware.RequireRole(permService, services.RoleUser), resourceHandler.CreateProfile)
			profiles.PUT("/:id", middleware.RequireRole(permService, services.RoleUser), resourceHandler.UpdateProfile)
			profiles.DELETE("/:id", middleware.RequireRole(permService, services.RoleUser), resourceHandler.DeleteProfile)
		}

		// Backup routes
		backups := protected.Group("/backups")
		backups.Use(middleware.RequireRole(permService, services.RoleAdmin))
		{
			backups.GET("", backupHandler.GetBackups)
			backups.POST("", backupHandler.CreateBackup)
			backups.DELETE("/:name", backupHandler.DeleteBackup)
		}
	}
}
