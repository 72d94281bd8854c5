package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/classcaption-team/classcaption/internal/adapter/handler"
	"github.com/classcaption-team/classcaption/internal/adapter/repository"
	"github.com/classcaption-team/classcaption/internal/infrastructure/cache"
	"github.com/classcaption-team/classcaption/internal/infrastructure/database"
	"github.com/classcaption-team/classcaption/internal/usecase/ingest"
	"github.com/classcaption-team/classcaption/pkg/config"
	"github.com/classcaption-team/classcaption/pkg/stt"
	pkgvalidator "github.com/classcaption-team/classcaption/pkg/validator"
)

func main() {
	// Load configuration; a missing STT API key fails here, not per request
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	log.Println("🔧 Initializing dependencies...")

	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	log.Println("⚙️  Initializing repositories...")
	sessionRepo := repository.NewSessionRepository(db)
	transcriptionRepo := repository.NewTranscriptionRepository(db)
	deadLetter := cache.NewDeadLetterStore(redisClient)

	log.Println("🎙️  Initializing STT provider client...")
	sttClient := stt.NewClient(&cfg.STT)

	ingestService := ingest.NewService(sttClient, sessionRepo, transcriptionRepo, deadLetter, logger)

	webhookHandler := handler.NewWebhookHandler(ingestService, cfg.STT.RequestTimeout, logger)
	transcriptionHandler := handler.NewTranscriptionHandler(sttClient, sessionRepo, transcriptionRepo, cfg.STT.WebhookBaseURL, logger)

	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, webhookHandler, transcriptionHandler, db, redisClient)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
