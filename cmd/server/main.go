package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"smartval/internal/config"
	"smartval/internal/handler"
	"smartval/internal/repository"
	"smartval/internal/service"
	"smartval/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("smartval starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()
	logger.Info("Connected to PostgreSQL database")

	// Initialize Redis task store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	taskStore := store.NewRedisTaskStore(redisClient, cfg.Redis.TaskTTL)

	// Initialize services
	geocoder := service.NewNominatimGeocoder(&cfg.Geocoder, logger)
	predictor := service.NewPredictor(cfg.Model.Path, logger)
	if err := predictor.Load(); err != nil {
		// Startup still succeeds: estimate requests report the outage while the
		// rest of the API keeps working.
		logger.Warn("valuation model unavailable", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	ranker := service.NewRanker(cfg.Valuation.NearbyLimit)
	valuationService := service.NewValuationService(repo, geocoder, predictor, ranker, cfg.ToleranceBands(), logger)
	importer := service.NewImporter(repo, cfg.Import.BatchSize, logger)

	pool := service.NewWorkerPool(taskStore, cfg.Valuation.Workers, cfg.Valuation.QueueSize, logger)
	pool.Start()

	logger.Info("Services initialized")

	// Initialize handlers
	valuationHandler := handler.NewValuationHandler(valuationService, pool, taskStore)
	favoriteHandler := handler.NewFavoriteHandler(repo)
	importHandler := handler.NewImportHandler(importer, pool, cfg.Import.MaxFileBytes)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "smartval",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Valuation endpoints
		apiV1.POST("/estimate", valuationHandler.Estimate)
		apiV1.POST("/valuations", valuationHandler.Enqueue)
		apiV1.GET("/tasks/:id", valuationHandler.GetTask)
		apiV1.GET("/districts", valuationHandler.Districts)

		// Favorite endpoints
		apiV1.POST("/favorites", favoriteHandler.Create)
		apiV1.GET("/favorites", favoriteHandler.List)
		apiV1.DELETE("/favorites/:id", favoriteHandler.Delete)

		// Bulk import endpoint
		apiV1.POST("/import", importHandler.Upload)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", addr))

	go func() {
		if err := router.Run(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	pool.Stop()
	logger.Info("Server stopped")
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
