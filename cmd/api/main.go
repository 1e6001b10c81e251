package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"marketwatch/internal/cache"
	"marketwatch/internal/config"
	"marketwatch/internal/database"
	"marketwatch/internal/handlers"
	"marketwatch/internal/logger"
	"marketwatch/internal/middleware"
	"marketwatch/internal/services"
	"marketwatch/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "marketwatch/internal/docs" // Import swagger docs
)

// @title           Marketwatch API
// @version         1.0
// @description     Marketwatch serves grouped financial reference data (stocks, indexes, mutual funds) and per-user watchlists over a cache-backed REST API.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize the cache store: Redis when configured, in-process otherwise.
	var store cache.Store
	if appConfig.RedisAddr != "" {
		redisStore, err := cache.NewRedisCache(context.Background(),
			appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB, appConfig.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Infof("Using Redis cache at %s (TTL %s)", appConfig.RedisAddr, appConfig.CacheTTL)
	} else {
		memStore := cache.NewMemoryCache(appConfig.CacheTTL)
		defer memStore.Close()
		store = memStore
		log.Infof("Using in-memory cache (TTL %s)", appConfig.CacheTTL)
	}

	// Register custom validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	watchlistService := services.NewWatchlistService(db, store)
	userService := services.NewUserService(db, watchlistService)
	catalogService := services.NewCatalogService(db)
	marketDataService := services.NewMarketDataService(store, catalogService, watchlistService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, auditService)
	marketDataHandler := handlers.NewMarketDataHandler(marketDataService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Market data is readable anonymously; identity only affects
	// watchlist flags and the watchlists category.
	v1.GET("/market-data", middleware.OptionalAuthMiddleware(), marketDataHandler.GetMarketData)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Watchlist routes
	watchlist := protected.Group("/watchlist")
	watchlist.GET("", watchlistHandler.GetWatchlist)
	watchlist.POST("/add-asset", watchlistHandler.AddAsset)
	watchlist.DELETE("/remove-asset", watchlistHandler.RemoveAsset)

	log.Infof("Starting Marketwatch backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
