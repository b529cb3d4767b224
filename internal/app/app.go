package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"usta_backend/internal/config"
	"usta_backend/internal/handlers"
	"usta_backend/internal/logger"
	"usta_backend/internal/middleware"
	"usta_backend/internal/moderation"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/internal/routes"
	"usta_backend/internal/services"
	"usta_backend/internal/validator"
	"usta_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Redis unavailable", "error", err, "addr", cfg.Redis.Addr)
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)

	moderationQ := queue.NewRedisQueue(redisClient, cfg.Moderation.QueueKey)
	searchQ := queue.NewRedisQueue(redisClient, cfg.Moderation.SearchQueueKey)

	factory := &services.Factory{
		ModerationQ: moderationQ,
		SearchQ:     searchQ,
	}

	// Жизненный цикл воркеров привязан к сигналам завершения процесса.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startWorkers(ctx, cfg, gormDB, moderationQ, searchQ)

	ginRouter := SetupRouter(gormDB, factory)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    address,
		Handler: ginRouter,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает gin.Engine со всеми middleware и маршрутами.
// Вынесен отдельно, чтобы интеграционные тесты могли поднять роутер
// поверх тестовой транзакции.
func SetupRouter(gormDB *gorm.DB, factory *services.Factory) *gin.Engine {
	customValidator := validator.New()
	appHandlers := handlers.NewAppHandlers(factory, customValidator)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())
	ginRouter.Use(middleware.DBMiddleware(gormDB))

	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func startWorkers(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, moderationQ, searchQ queue.Queue) {
	provider := moderation.NewHTTPProvider(
		cfg.Moderation.BaseURL,
		cfg.Moderation.APIKey,
		time.Duration(cfg.Moderation.TimeoutSec)*time.Second,
	)

	performerRepo := repositories.NewPerformerRepository(gormDB)
	orderRepo := repositories.NewOrderRepository(gormDB)
	reviewRepo := repositories.NewReviewRepository(gormDB)

	moderationWorker := workers.NewModerationWorker(
		gormDB,
		moderationQ,
		provider,
		provider,
		performerRepo,
		orderRepo,
		reviewRepo,
		cfg.Moderation.Workers,
		cfg.Moderation.MaxRetries,
	)
	moderationWorker.Start(ctx)

	searchWorker := workers.NewSearchWorker(searchQ, performerRepo)
	searchWorker.Start(ctx)
}
