package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/classcaption-team/classcaption/errors"
	dto "github.com/classcaption-team/classcaption/internal/adapter/dto/transcription"
	"github.com/classcaption-team/classcaption/internal/usecase/ingest"
)

// WebhookHandler receives transcription completion webhooks from the
// speech-to-text provider
type WebhookHandler struct {
	svc     ingest.Service
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. timeout caps the whole
// delivery, fetch retries included, so an upstream hang cannot hold the
// connection past the sender's own webhook timeout.
func NewWebhookHandler(svc ingest.Service, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, timeout: timeout, logger: logger}
}

// HandleTranscriptionWebhook processes one webhook delivery
// @Summary      Transcription webhook
// @Description  Receives transcription job notifications from the STT provider
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        sessionId  query  string  true  "Session UUID"
// @Success      200  {object}  transcription.WebhookAck
// @Failure      400  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /webhooks/transcription [post]
func (h *WebhookHandler) HandleTranscriptionWebhook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrBadRequest("failed to read body"))
	}

	res, err := h.svc.Ingest(ctx, c.QueryParam("sessionId"), body)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	message := "transcription stored"
	if res.Deferred {
		message = "acknowledged but persistence deferred for out-of-band replay"
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{
		Success:   true,
		Message:   message,
		SessionID: res.SessionID.String(),
		JobID:     res.JobID,
		Status:    string(res.Status),
	})
}
