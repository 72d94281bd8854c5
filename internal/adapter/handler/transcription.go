package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/classcaption-team/classcaption/errors"
	dto "github.com/classcaption-team/classcaption/internal/adapter/dto/transcription"
	"github.com/classcaption-team/classcaption/internal/adapter/repository"
	"github.com/classcaption-team/classcaption/internal/domain/entities"
	"github.com/classcaption-team/classcaption/pkg/stt"
)

// TranscriptionHandler exposes the read/submit surface around the
// pipeline-owned transcriptions table
type TranscriptionHandler struct {
	client            *stt.Client
	sessionRepo       *repository.SessionRepository
	transcriptionRepo *repository.TranscriptionRepository
	webhookBaseURL    string
	logger            *zap.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(
	client *stt.Client,
	sessionRepo *repository.SessionRepository,
	transcriptionRepo *repository.TranscriptionRepository,
	webhookBaseURL string,
	logger *zap.Logger,
) *TranscriptionHandler {
	return &TranscriptionHandler{
		client:            client,
		sessionRepo:       sessionRepo,
		transcriptionRepo: transcriptionRepo,
		webhookBaseURL:    webhookBaseURL,
		logger:            logger,
	}
}

// Submit sends a session's audio URL to the provider for transcription
// @Summary      Submit audio for transcription
// @Tags         Transcriptions
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "Session UUID"
// @Success      202  {object}  transcription.SubmitResponse
// @Router       /sessions/{id}/transcriptions [post]
func (h *TranscriptionHandler) Submit(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrBadRequest("session id must be a valid UUID"))
	}

	var req dto.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrBadRequest("malformed request body"))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrBadRequest("audio_url must be a valid URL"))
	}

	ctx := c.Request().Context()
	if err := h.sessionRepo.EnsureSession(ctx, sessionID); err != nil {
		return HandleError(h.logger, c, errors.ErrStorageUnavailable(err))
	}

	webhookURL := fmt.Sprintf("%s/v1/webhooks/transcription?sessionId=%s", h.webhookBaseURL, sessionID)
	jobID, err := h.client.SubmitTranscription(ctx, req.AudioURL, webhookURL)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrUpstreamFetchFailed("", err))
	}

	h.logger.Info("transcription submitted",
		zap.String("session_id", sessionID.String()),
		zap.String("job_id", jobID),
	)

	return c.JSON(http.StatusAccepted, dto.SubmitResponse{
		JobID:  jobID,
		Status: string(entities.TranscriptionStatusQueued),
	})
}

// List returns the stored transcriptions for a session, newest first
// @Summary      List session transcriptions
// @Tags         Transcriptions
// @Produce      json
// @Param        id  path  string  true  "Session UUID"
// @Success      200  {object}  transcription.ListResponse
// @Router       /sessions/{id}/transcriptions [get]
func (h *TranscriptionHandler) List(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrBadRequest("session id must be a valid UUID"))
	}

	transcriptions, err := h.transcriptionRepo.ListBySessionID(c.Request().Context(), sessionID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageUnavailable(err))
	}

	return c.JSON(http.StatusOK, dto.ListResponse{
		SessionID:      sessionID.String(),
		Transcriptions: transcriptions,
	})
}
