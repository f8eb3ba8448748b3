package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotswap-api/core/cache"
	"slotswap-api/core/config"
	"slotswap-api/core/constants"
	"slotswap-api/core/database"
	"slotswap-api/core/logger"
	"slotswap-api/core/middleware"
	"slotswap-api/core/queue"
	"slotswap-api/modules/auth"
	"slotswap-api/modules/notification"
	"slotswap-api/modules/slot"
	"slotswap-api/modules/swap"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

// Run boots the whole application: config, logger, database with
// migrations, redis, the HTTP server and the asynq worker. It blocks
// until SIGINT/SIGTERM and then shuts everything down in order.
func Run() error {
	cfg := config.Load()
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return err
	}

	q := queue.NewQueue(cfg.Redis)
	defer q.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	authSvc, registerAuthRoutes := auth.Init(api, db, redisCache)
	mw := middleware.NewMiddleware(authSvc)
	registerAuthRoutes(mw)

	notifSvc := notification.Init(api, db, mw)
	slotRepo := slot.Init(api, db, mw)
	swapSvc := swap.Init(api, db, mw, slotRepo, q)

	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskNotificationDeliver, notifSvc.HandleDeliverTask)
	mux.HandleFunc(constants.TaskSwapExpire, swapSvc.HandleExpireTask)

	worker := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: 5,
	})
	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("Server:Run:Worker:Error:", err)
		}
	}()

	var scheduler *asynq.Scheduler
	if cfg.Swap.PendingTTL > 0 {
		scheduler = asynq.NewScheduler(queue.RedisOpt(cfg.Redis), nil)
		if _, err := scheduler.Register("@every 10m", asynq.NewTask(constants.TaskSwapExpire, nil)); err != nil {
			return err
		}
		go func() {
			if err := scheduler.Run(); err != nil {
				logger.Error("Server:Run:Scheduler:Error:", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Run:HTTP:Error:", err)
		}
	}()
	logger.Info("Server started", "addr", addr, "env", cfg.Server.Env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server:Shutdown:HTTP:Error:", err)
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	worker.Shutdown()

	logger.Info("Server stopped")
	return nil
}
