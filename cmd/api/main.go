// @title Quiz Assessment API
// @version 1.0
// @description Quiz sessions generated from learning material: answer, score and analyze.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "quiz-assessment/cmd/api/docs"
	"quiz-assessment/internal/adapter"
	"quiz-assessment/internal/cache"
	"quiz-assessment/internal/config"
	"quiz-assessment/internal/database"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/event"
	"quiz-assessment/internal/handler"
	"quiz-assessment/internal/logger"
	"quiz-assessment/internal/middleware"
	"quiz-assessment/internal/repository"
	"quiz-assessment/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	generator, err := newGenerationService(cfg.Generation)
	if err != nil {
		appLogger.Fatal("Failed to create generation service", zap.Error(err))
	}
	analyzer, err := newAnalysisService(cfg.Analysis)
	if err != nil {
		appLogger.Fatal("Failed to create analysis service", zap.Error(err))
	}
	appLogger.Info("Upstream services initialized",
		zap.String("generation", cfg.Generation.Provider),
		zap.String("analysis", cfg.Analysis.Provider))

	var (
		sessionRepo domain.SessionRepository
		txManager   domain.TransactionManager
	)
	if cfg.DB.Driver == database.DriverMemory {
		memory := repository.NewMemorySessionRepository()
		sessionRepo, txManager = memory, memory
		appLogger.Warn("Using in-memory session storage; sessions are lost on restart")
	} else {
		db, err := database.NewSQLXOracleDB(cfg.DB.Driver, database.DSN(cfg))
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		sessionRepo = repository.NewSessionDatabaseAdapter(db)
		txManager = repository.NewTransactionManagerAdapter(db)
	}

	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("RedisCacheAdapter initialized")
	}

	var publisher domain.EventPublisher
	if cfg.Events.AMQPURL != "" {
		publisher, err = event.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			appLogger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		appLogger.Info("AMQP publisher initialized", zap.String("exchange", cfg.Events.Exchange))
	} else {
		publisher = event.NewLogPublisher()
	}
	defer publisher.Close()

	sessionService := service.NewSessionService(sessionRepo, txManager, generator, analyzer, publisher, cacheAdapter, cfg)
	sessionHandler := handler.NewSessionHandler(sessionService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", handler.HealthCheck(cacheAdapter))

	apiGroup := app.Group("/api", middleware.Protected(cfg.Auth.JWTSecret))
	sessionHandler.RegisterRoutes(apiGroup)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
