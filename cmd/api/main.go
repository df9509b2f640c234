package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"loanrisk/internal/config"
	"loanrisk/internal/handlers"
	"loanrisk/internal/logger"
	"loanrisk/internal/middleware"
	"loanrisk/internal/scoring"
	"loanrisk/internal/services"
	"loanrisk/internal/store"
	"loanrisk/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	kv, err := store.Open(appConfig.StoreDSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = kv.Close() }()

	// Register custom binding validators before any handler binds.
	validator.Register()

	// Core stores and collaborators
	identityService := services.NewIdentityService(kv, appConfig.BootstrapAdminPassword)
	historyService := services.NewHistoryService(kv, appConfig.HistoryLimit)
	insightService := services.NewInsightService()
	scoringClient := scoring.NewClient(
		appConfig.ScoringURL,
		appConfig.ScoringAPIKey,
		appConfig.ScoringTimeout,
		appConfig.HealthTimeout,
		appConfig.PredictionCooldown,
	)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	monitor := scoring.NewMonitor(scoringClient, appConfig.HealthInterval)
	go monitor.Run(monitorCtx)

	// Handlers
	authHandler := handlers.NewAuthHandler(identityService)
	predictionHandler := handlers.NewPredictionHandler(scoringClient, historyService, identityService, insightService)
	adminHandler := handlers.NewAdminHandler(identityService, historyService)
	healthHandler := handlers.NewHealthHandler(monitor)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	router.GET("/api/health", healthHandler.Check)

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Session-protected routes
	protected := v1.Group("/")
	protected.Use(middleware.Session(identityService))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/session", authHandler.Session)
	protected.GET("/profile", authHandler.Profile)

	predictions := protected.Group("/predictions")
	predictions.POST("", predictionHandler.Predict)
	predictions.POST("/batch", predictionHandler.PredictBatch)
	predictions.GET("", predictionHandler.List)
	predictions.GET("/:id", predictionHandler.Get)

	protected.GET("/analytics/summary", predictionHandler.Summary)

	// Admin-only routes
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:username", adminHandler.UpdateUser)
	admin.POST("/users/:username/promote", adminHandler.Promote)
	admin.POST("/users/:username/demote", adminHandler.Demote)
	admin.POST("/users/:username/activate", adminHandler.Activate)
	admin.POST("/users/:username/deactivate", adminHandler.Deactivate)
	admin.DELETE("/users/:username", adminHandler.DeleteUser)
	admin.GET("/stats", adminHandler.Stats)
	admin.DELETE("/predictions", adminHandler.ClearPredictions)

	log.Infof("Starting LoanRisk backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
