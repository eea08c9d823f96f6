// Package router assembles the HTTP surface: middleware chain, versioned
// API routes, static portrait serving and the metrics endpoint.
package router

import (
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/api"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/di"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

// Router is the main router for the application.
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates the engine with the full middleware chain installed.
func New(container *di.Container) *Router {
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg))

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(engine)

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes.
func (r *Router) SetupRoutes() {
	c := r.Container

	authHandler := api.NewAuthHandler(c.Store, c.JWTService, r.Logger)
	modelHandler := api.NewModelHandler(c.Store, c.Providers)
	campaignHandler := api.NewCampaignHandler(c.Store, c.Portrait, r.Logger)
	characterHandler := api.NewCharacterHandler(c.Store, c.Portrait, r.Logger)
	chatHandler := api.NewChatHandler(c.Store, c.Orchestrator)
	analyticsHandler := api.NewAnalyticsHandler(c.Analytics)
	healthHandler := api.NewHealthHandler(c.DB, c.Providers)
	wsHandler := api.NewWSHandler(c.Orchestrator, c.JWTService, r.Logger)

	jwtAuth := middleware.JWTAuth(c.JWTService)

	// Promoted portraits are served straight off the content store.
	r.Engine.Static("/static/portraits", r.Config.Portrait.ContentRoot)

	v1 := r.Engine.Group("/api/v1")

	// Public routes.
	v1.GET("/health", healthHandler.Check)

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	// Protected routes.
	protected := v1.Group("/")
	protected.Use(jwtAuth)
	{
		modelRoutes := protected.Group("/models")
		{
			modelRoutes.GET("", modelHandler.List)
			modelRoutes.GET("/choice", modelHandler.GetChoice)
			modelRoutes.PUT("/choice", modelHandler.SaveChoice)
		}

		campaignRoutes := protected.Group("/campaigns")
		{
			campaignRoutes.POST("", campaignHandler.Create)
			campaignRoutes.GET("", campaignHandler.List)
			campaignRoutes.GET("/:id", campaignHandler.Get)
			campaignRoutes.DELETE("/:id", campaignHandler.Delete)
			campaignRoutes.POST("/:id/portrait", campaignHandler.GeneratePortrait)
			campaignRoutes.POST("/:id/start", chatHandler.Start)
			campaignRoutes.POST("/:id/messages", chatHandler.SendMessage)
			campaignRoutes.GET("/:id/messages", chatHandler.CampaignHistory)
		}

		characterRoutes := protected.Group("/characters")
		{
			characterRoutes.POST("", characterHandler.Create)
			characterRoutes.GET("", characterHandler.List)
			characterRoutes.GET("/:id", characterHandler.Get)
			characterRoutes.DELETE("/:id", characterHandler.Delete)
			characterRoutes.POST("/:id/portrait", characterHandler.GeneratePortrait)
		}

		protected.GET("/messages", chatHandler.History)
		protected.GET("/analytics", analyticsHandler.Stats)
	}

	// WebSocket chat; authenticated by token query parameter.
	r.Engine.GET("/ws", wsHandler.Serve)
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Upgrade", "Connection"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: true,
	}

	origins := cfg.Security.AllowedOrigins
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}
