package ingest

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/classcaption-team/classcaption/errors"
	"github.com/classcaption-team/classcaption/internal/domain/entities"
)

var validate = validator.New()

// WebhookPayload is the minimal shape every webhook delivery must carry.
// It exists to cheaply reject garbage before any network call is made.
type WebhookPayload struct {
	TranscriptID string  `json:"transcript_id"`
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	Error        *string `json:"error,omitempty"`
}

// JobID returns the upstream job identifier. The provider uses
// "transcript_id" in webhook deliveries and "id" in fetched transcripts;
// both are accepted.
func (p *WebhookPayload) JobID() string {
	if p.TranscriptID != "" {
		return p.TranscriptID
	}
	return p.ID
}

// MinimalPass validates that the delivery carries a job identifier and a
// known status
func MinimalPass(payload []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, apperrors.ErrBadRequest("malformed webhook payload").WithDetail("parse", err.Error())
	}
	if p.JobID() == "" {
		return nil, apperrors.ErrBadRequest("malformed webhook payload").WithDetail("transcript_id", "required")
	}
	if p.Status == "" {
		return nil, apperrors.ErrBadRequest("malformed webhook payload").WithDetail("status", "required")
	}
	if !entities.KnownStatus(p.Status) {
		return nil, apperrors.ErrBadRequest("malformed webhook payload").
			WithDetail("status", fmt.Sprintf("unknown status %q", p.Status))
	}
	return &p, nil
}

// TranscriptRecord is the normalized full transcript shape. Every field
// beyond the job id and status is optional, and unrecognized provider
// fields are retained in Raw rather than rejected, so new upstream fields
// never break ingestion.
type TranscriptRecord struct {
	JobID             string                     `json:"-"`
	Status            string                     `json:"status"`
	Text              *string                    `json:"text"`
	Confidence        *float64                   `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	LanguageCode      string                     `json:"language_code"`
	AudioDuration     *float64                   `json:"audio_duration" validate:"omitempty,gte=0"`
	AudioURL          *string                    `json:"audio_url" validate:"omitempty,url"`
	Words             []entities.WordTimestamp   `json:"words"`
	ErrorMessage      *string                    `json:"error"`
	WebhookStatusCode *int                       `json:"webhook_status_code"`
	Raw               map[string]json.RawMessage `json:"-"`
}

// fullShape is the decode target for FullPass; ids live here so the
// webhook and fetched-transcript spellings both resolve
type fullShape struct {
	TranscriptID string `json:"transcript_id"`
	ID           string `json:"id"`
	TranscriptRecord
}

// FullPass validates the full transcript record, either the original
// webhook payload (status != completed) or the fetched transcript.
// Returns the normalized record or a structured field-error list.
func FullPass(data []byte) (*TranscriptRecord, error) {
	var shape fullShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, apperrors.ErrInvalidTranscriptData(err)
	}

	record := shape.TranscriptRecord
	record.JobID = shape.TranscriptID
	if record.JobID == "" {
		record.JobID = shape.ID
	}
	if record.JobID == "" {
		return nil, apperrors.ErrInvalidTranscriptData(nil).WithDetail("transcript_id", "required")
	}
	if !entities.KnownStatus(record.Status) {
		return nil, apperrors.ErrInvalidTranscriptData(nil).
			WithDetail("status", fmt.Sprintf("unknown status %q", record.Status))
	}

	if err := validate.Struct(&record); err != nil {
		appErr := apperrors.ErrInvalidTranscriptData(err)
		var fieldErrs validator.ValidationErrors
		if stdErrors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				appErr = appErr.WithDetail(fe.Field(), fe.Tag())
			}
		}
		return nil, appErr
	}

	if record.LanguageCode == "" {
		record.LanguageCode = "en"
	}

	// Retain the raw payload, unknown keys included
	if err := json.Unmarshal(data, &record.Raw); err != nil {
		record.Raw = nil
	}

	return &record, nil
}

// LowConfidence reports whether the record carries a suspiciously low
// confidence score. In-range low confidence is a warning for operators,
// never a validation failure.
func (r *TranscriptRecord) LowConfidence() bool {
	return r.Confidence != nil && *r.Confidence < 0.5
}
