package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/handlers"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
	"alfredoptarigan/writing-feedback/internal/repositories"
	"alfredoptarigan/writing-feedback/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Warn("no .env file found, using process environment")
	}
	log.Info("config loaded",
		"env", cfg.Server.Env,
		"provider", cfg.Provider.Name,
		"demo", cfg.IsDemo(),
		"max_file_mb", cfg.Upload.MaxFileMB,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Audit log is optional
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}

	var (
		logRepo  repositories.FeedbackLogRepository
		recorder services.LogRecorder
	)
	if db != nil {
		logRepo = repositories.NewFeedbackLogRepository(db)
		recorder = services.NewLogRecorder(logRepo, 2, log)
		recorder.Start(context.Background())
		log.Info("feedback log enabled", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	}

	provider, err := services.NewCompletionProvider(ctx, cfg.Provider, log)
	if err != nil {
		log.Fatal("failed to initialize completion provider", "error", err)
	}

	extractor := services.NewExtractorService(
		services.NewPDFParserService(),
		services.NewDocxParserService(),
		services.NewOCRService(cfg.OCR, log),
		log,
	)

	feedbackService := services.NewFeedbackService(extractor, provider, recorder, cfg.IsDemo(), log)
	log.Info("services initialized", "provider", provider.Name())

	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cfg.Upload.MaxFileMB, log)
	logHandler := handlers.NewFeedbackLogHandler(logRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Writing Feedback API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.Provider.Timeout + 30*time.Second,
		// multipart framing needs headroom above the file limit
		BodyLimit:    int(cfg.MaxFileBytes()) + 1024*1024,
		ErrorHandler: handlers.NewErrorHandler(cfg.Upload.MaxFileMB, log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"provider": provider.Name(),
			"demo":     cfg.IsDemo(),
			"time":     time.Now(),
		})
	})
	handlers.RegisterRoutes(app, feedbackHandler, logHandler, cfg.Server.StaticDir)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Error("server forced to shutdown", "error", err)
		}
	}()

	addr := cfg.ListenAddr()
	log.Info("server starting", "addr", addr, "static_dir", cfg.Server.StaticDir)
	if err := app.Listen(addr); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	if recorder != nil {
		recorder.Stop()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	log.Info("server stopped")
}
