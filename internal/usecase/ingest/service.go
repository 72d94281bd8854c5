package ingest

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/classcaption-team/classcaption/errors"
	"github.com/classcaption-team/classcaption/internal/domain/entities"
	"github.com/classcaption-team/classcaption/internal/infrastructure/cache"
)

// sessionIDPattern matches v4 UUIDs only: version nibble 4, variant nibble
// in {8,9,a,b}, case-insensitive
var sessionIDPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Fetcher retrieves the full transcript record for a completed job
type Fetcher interface {
	GetTranscript(ctx context.Context, jobID string) ([]byte, error)
}

// SessionStore guarantees session existence before data is attached
type SessionStore interface {
	EnsureSession(ctx context.Context, id uuid.UUID) error
}

// TranscriptionStore persists transcriptions keyed by upstream job id
type TranscriptionStore interface {
	Upsert(ctx context.Context, t *entities.Transcription) error
}

// DeadLetter records deliveries that validated but could not be persisted
type DeadLetter interface {
	Enqueue(ctx context.Context, event cache.DeadLetterEvent) error
}

// Service drives a webhook delivery from raw payload to persisted row
type Service interface {
	Ingest(ctx context.Context, sessionID string, payload []byte) (*Result, error)
}

// Result is the acknowledgment returned to the webhook sender.
// Deferred means the row could not be written but the delivery was
// dead-lettered for replay, so the sender still receives 200.
type Result struct {
	SessionID uuid.UUID
	JobID     string
	Status    entities.TranscriptionStatus
	Deferred  bool
}

type ingestService struct {
	fetcher        Fetcher
	sessions       SessionStore
	transcriptions TranscriptionStore
	deadLetter     DeadLetter
	logger         *zap.Logger
}

// NewService constructs the ingestion service
func NewService(fetcher Fetcher, sessions SessionStore, transcriptions TranscriptionStore, deadLetter DeadLetter, logger *zap.Logger) Service {
	return &ingestService{
		fetcher:        fetcher,
		sessions:       sessions,
		transcriptions: transcriptions,
		deadLetter:     deadLetter,
		logger:         logger,
	}
}

// Ingest validates, reconciles, and persists one webhook delivery.
// Deliveries arrive at least once and in arbitrary order; each delivery's
// validated record is authoritative for its own job id.
func (s *ingestService) Ingest(ctx context.Context, sessionID string, payload []byte) (*Result, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return nil, apperrors.ErrBadRequest("sessionId must be a valid UUID").WithDetail("sessionId", sessionID)
	}
	sessionUUID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, apperrors.ErrBadRequest("sessionId must be a valid UUID").WithDetail("sessionId", sessionID)
	}

	minimal, err := MinimalPass(payload)
	if err != nil {
		return nil, err
	}

	s.logger.Info("webhook delivery received",
		zap.String("session_id", sessionID),
		zap.String("job_id", minimal.JobID()),
		zap.String("status", minimal.Status),
	)

	// Only completed jobs have richer data upstream; every other status
	// is processed from the delivered payload directly
	data := payload
	if minimal.Status == string(entities.TranscriptionStatusCompleted) {
		fetched, err := s.fetcher.GetTranscript(ctx, minimal.JobID())
		if err != nil {
			s.logger.Error("transcript fetch failed after retries",
				zap.String("session_id", sessionID),
				zap.String("job_id", minimal.JobID()),
				zap.Error(err),
			)
			return nil, apperrors.ErrUpstreamFetchFailed(minimal.JobID(), err)
		}
		data = fetched
	}

	record, err := FullPass(data)
	if err != nil {
		return nil, err
	}
	if record.JobID == "" {
		record.JobID = minimal.JobID()
	}

	if record.LowConfidence() {
		s.logger.Warn("transcript confidence below threshold",
			zap.String("job_id", record.JobID),
			zap.Float64("confidence", *record.Confidence),
		)
	}

	// A session row must exist before the transcription can reference it.
	// Unknown session ids get a placeholder row: data capture beats strict
	// referential pre-validation for webhook traffic.
	if err := s.sessions.EnsureSession(ctx, sessionUUID); err != nil {
		return nil, apperrors.ErrStorageUnavailable(err)
	}

	transcription := buildTranscription(sessionUUID, record)

	if err := s.transcriptions.Upsert(ctx, transcription); err != nil {
		s.logger.Error("failed to persist transcription",
			zap.String("session_id", sessionID),
			zap.String("job_id", record.JobID),
			zap.String("status", string(transcription.Status)),
			zap.String("text_preview", preview(record.Text)),
			zap.Int("word_count", transcription.WordCount),
			zap.Int("character_count", transcription.CharacterCount),
			zap.Error(err),
		)
		return s.deferDelivery(ctx, sessionID, record.JobID, payload, transcription, err)
	}

	return &Result{
		SessionID: sessionUUID,
		JobID:     record.JobID,
		Status:    transcription.Status,
	}, nil
}

// deferDelivery dead-letters a delivery whose persist failed. Acknowledging
// 200 here is deliberate: the provider redelivering the same payload will
// hit the same store failure, and the dead-letter copy is replayable out of
// band. If even the dead-letter write fails the request surfaces 500.
func (s *ingestService) deferDelivery(ctx context.Context, sessionID, jobID string, payload []byte, t *entities.Transcription, cause error) (*Result, error) {
	event := cache.DeadLetterEvent{
		SessionID:  sessionID,
		JobID:      jobID,
		ReceivedAt: time.Now(),
		Reason:     cause.Error(),
		Payload:    json.RawMessage(payload),
	}
	if err := s.deadLetter.Enqueue(ctx, event); err != nil {
		s.logger.Error("dead-letter enqueue failed, delivery will be retried upstream",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return nil, apperrors.ErrPersistenceFailed(cause)
	}

	s.logger.Warn("delivery dead-lettered for replay",
		zap.String("session_id", sessionID),
		zap.String("job_id", jobID),
	)
	return &Result{
		SessionID: t.SessionID,
		JobID:     jobID,
		Status:    t.Status,
		Deferred:  true,
	}, nil
}

// buildTranscription derives stored metrics and normalizes units before the
// upsert
func buildTranscription(sessionID uuid.UUID, record *TranscriptRecord) *entities.Transcription {
	t := &entities.Transcription{
		SessionID:         sessionID,
		JobID:             record.JobID,
		Text:              record.Text,
		Status:            entities.TranscriptionStatus(record.Status),
		Confidence:        record.Confidence,
		LanguageCode:      record.LanguageCode,
		ErrorMessage:      record.ErrorMessage,
		AudioURL:          record.AudioURL,
		WebhookStatusCode: record.WebhookStatusCode,
	}

	if record.Text != nil {
		t.WordCount = len(strings.Fields(*record.Text))
		t.CharacterCount = len(*record.Text)
	}

	if record.AudioDuration != nil {
		ms := int64(math.Round(*record.AudioDuration * 1000))
		t.AudioDurationMs = &ms
	}

	if len(record.Words) > 0 {
		if b, err := json.Marshal(record.Words); err == nil {
			t.Words = datatypes.JSON(b)
		}
	}

	return t
}

// preview truncates text for log context
func preview(text *string) string {
	if text == nil {
		return ""
	}
	if len(*text) <= 80 {
		return *text
	}
	return (*text)[:80] + "..."
}
