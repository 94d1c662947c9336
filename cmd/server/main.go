package main // Entry point package

import (
	stdlog "log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/task-manager-api/internal/config"
	"github.com/iliyamo/task-manager-api/internal/database"
	"github.com/iliyamo/task-manager-api/internal/handler"
	"github.com/iliyamo/task-manager-api/internal/middleware"
	"github.com/iliyamo/task-manager-api/internal/queue"
	"github.com/iliyamo/task-manager-api/internal/repository"
	"github.com/iliyamo/task-manager-api/internal/router"
)

func main() {
	_ = godotenv.Load() // optional .env, real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		stdlog.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	taskRepo := repository.NewTaskRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo)
	taskHandler := handler.NewTaskHandler(taskRepo)

	// Task events are only wired when a broker is configured; without one
	// the handler simply skips publishing.
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		taskHandler.Publish = queue.PublishTaskCompleted
		go func() {
			if err := queue.StartTaskConsumer(); err != nil {
				stdlog.Printf("task consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowCredentials: true,
	}))

	limiter := middleware.NewFixedWindow(config.LoadRateLimitConfig(), config.NewRedisClient())
	router.Register(e, cfg, limiter, authHandler, taskHandler, userRepo)

	addr := ":" + cfg.Port
	stdlog.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		stdlog.Fatal(err)
	}
}

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
