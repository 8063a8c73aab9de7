package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dayspark/core/internal/api/handlers"
	"github.com/dayspark/core/internal/api/middleware"
	"github.com/dayspark/core/internal/cache"
	"github.com/dayspark/core/internal/config"
	"github.com/dayspark/core/internal/services"
)

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *middleware.AuthManager, error) {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authManager, err := middleware.NewAuthManager(cfg.DataDir, cfg.JWTSecret, middleware.DefaultTokenExpiry)
	if err != nil {
		return nil, nil, err
	}

	// Services
	userService := services.NewUserService(db)
	logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
	accountService := services.NewAccountService(db, cfg.GetEncryptionKey())
	settingsService := services.NewSettingsService(db)

	briefCache := cache.New(cache.NewGormStore(db), cfg.CacheTTL())
	briefService := services.NewBriefService(db, briefCache, accountService, settingsService)

	// Background schedulers
	if cfg.RefreshIntervalMin > 0 {
		refreshScheduler := services.NewRefreshScheduler(db, briefService, logService, cfg.RefreshInterval())
		refreshScheduler.Start()
	}
	tokenScheduler := services.NewTokenScheduler(db, accountService, settingsService, 5*time.Minute)
	tokenScheduler.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, authManager.JWTManager, logService)
	userHandler := handlers.NewUserHandler(userService, logService)
	accountHandler := handlers.NewAccountHandler(accountService, briefService, logService)
	briefHandler := handlers.NewBriefHandler(briefService, logService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, briefService, logService)
	oauthHandler := handlers.NewOAuthHandler(accountService, settingsService)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		api.Use(middleware.APIKeyMiddleware(authManager.APIKeyManager))

		// Auth routes (API key required, but no JWT required)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// OAuth callback arrives without a JWT
		oauth := api.Group("/oauth")
		{
			oauth.GET("/google/callback", oauthHandler.GoogleCallback)
		}

		// Protected routes (API key + JWT required)
		protected := api.Group("")
		protected.Use(middleware.JWTMiddleware(authManager.JWTManager))
		{
			protected.POST("/auth/refresh", authHandler.RefreshToken)
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/me", authHandler.GetCurrentUser)

			userGroup := protected.Group("/user")
			{
				userGroup.GET("/profile", userHandler.GetProfile)
				userGroup.PUT("/password", userHandler.ChangePassword)
			}

			accounts := protected.Group("/accounts")
			{
				accounts.GET("", accountHandler.ListAccounts)
				accounts.POST("", accountHandler.CreateAccount)
				accounts.GET("/:id", accountHandler.GetAccount)
				accounts.DELETE("/:id", accountHandler.DeleteAccount)
				accounts.POST("/:id/test", accountHandler.TestConnection)
				accounts.PUT("/:id/enable", accountHandler.EnableAccount)
				accounts.PUT("/:id/disable", accountHandler.DisableAccount)
			}

			brief := protected.Group("/brief")
			{
				brief.GET("", briefHandler.GetBrief)
				brief.GET("/summary", briefHandler.GetBriefSummary)
				brief.POST("/refresh", briefHandler.RefreshBrief)
			}

			settings := protected.Group("/settings")
			{
				settings.GET("", settingsHandler.GetSettings)
				settings.PUT("", settingsHandler.UpdateSettings)
			}

			oauthProtected := protected.Group("/oauth")
			{
				oauthProtected.GET("/config", oauthHandler.GetOAuthConfig)
				oauthProtected.GET("/google/auth", oauthHandler.GetGoogleAuthURL)
			}
		}
	}

	return router, authManager, nil
}
