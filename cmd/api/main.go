package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/api/handlers"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/assembler"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/cache/redis"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/metrics"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/middleware/ratelimit"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/middleware/security"
	"github.com/vikasmalikst/evidently-aeo-sub013/internal/storage/sqlite"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/config"
	appLogger "github.com/vikasmalikst/evidently-aeo-sub013/pkg/logger"
	"github.com/vikasmalikst/evidently-aeo-sub013/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AEO Metrics API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = appLogger.Log
	err = retry.Do(context.Background(), retryCfg, func() error {
		return sqliteClient.Ping(context.Background())
	})
	if err != nil {
		appLogger.Fatal("Failed to reach SQLite store", zap.Error(err))
	}

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer cacheClient.Close()
	}

	engine := assembler.NewEngine(sqliteClient, cfg.Engine.ChunkSize, cfg.Engine.Parallelism, appLogger.Log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.Log})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	metricsHandler := handlers.NewMetricsHandler(engine, cacheClient)

	api := app.Group("/api/v1")

	api.Post("/metrics/brand", metricsHandler.HandleBrandView)
	api.Post("/metrics/competitor", metricsHandler.HandleCompetitorView)
	api.Post("/metrics/topics/compare", metricsHandler.HandleTopicComparison)
	api.Post("/metrics/sources", metricsHandler.HandleSourceAttribution)
	api.Post("/metrics/prompts", metricsHandler.HandlePromptsAnalytics)
	api.Delete("/metrics/cache/:view", metricsHandler.HandleInvalidateCache)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
