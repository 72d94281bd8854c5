package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/classcaption-team/classcaption/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	webhookHandler       *WebhookHandler
	transcriptionHandler *TranscriptionHandler
	db                   *gorm.DB
	redis                *redis.Client
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, webhookHandler *WebhookHandler, transcriptionHandler *TranscriptionHandler, db *gorm.DB, redisClient *redis.Client) *Router {
	return &Router{
		cfg:                  cfg,
		webhookHandler:       webhookHandler,
		transcriptionHandler: transcriptionHandler,
		db:                   db,
		redis:                redisClient,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")

	v1.POST("/webhooks/transcription", rt.webhookHandler.HandleTranscriptionWebhook)

	sessions := v1.Group("/sessions")
	sessions.POST("/:id/transcriptions", rt.transcriptionHandler.Submit)
	sessions.GET("/:id/transcriptions", rt.transcriptionHandler.List)
}

// healthCheck reports liveness plus database and redis reachability
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := rt.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "unreachable"
	}

	redisStatus := "ok"
	if err := rt.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" || redisStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
		"database":    dbStatus,
		"redis":       redisStatus,
	})
}
