package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TranscriptionStatus mirrors the provider's job lifecycle
type TranscriptionStatus string

const (
	TranscriptionStatusQueued     TranscriptionStatus = "queued"
	TranscriptionStatusProcessing TranscriptionStatus = "processing"
	TranscriptionStatusCompleted  TranscriptionStatus = "completed"
	TranscriptionStatusError      TranscriptionStatus = "error"
)

// KnownStatus reports whether s is one of the provider's four job states
func KnownStatus(s string) bool {
	switch TranscriptionStatus(s) {
	case TranscriptionStatusQueued, TranscriptionStatusProcessing,
		TranscriptionStatusCompleted, TranscriptionStatusError:
		return true
	}
	return false
}

// WordTimestamp represents a single word with time and speaker info
type WordTimestamp struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Transcription is the stored outcome of an upstream transcription job.
// JobID carries a unique index so redundant webhook deliveries for the same
// job overwrite the row instead of duplicating it.
type Transcription struct {
	ID                uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID         uuid.UUID           `json:"session_id" gorm:"type:uuid;not null;index"`
	JobID             string              `json:"job_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Text              *string             `json:"text,omitempty" gorm:"type:text"`
	Status            TranscriptionStatus `json:"status" gorm:"type:varchar(50);not null"`
	Confidence        *float64            `json:"confidence,omitempty"`
	LanguageCode      string              `json:"language_code" gorm:"type:varchar(20);default:'en'"`
	WordCount         int                 `json:"word_count"`
	CharacterCount    int                 `json:"character_count"`
	AudioDurationMs   *int64              `json:"audio_duration_ms,omitempty"`
	ErrorMessage      *string             `json:"error_message,omitempty" gorm:"type:text"`
	Words             datatypes.JSON      `json:"words,omitempty" gorm:"type:jsonb"`
	AudioURL          *string             `json:"audio_url,omitempty" gorm:"type:text"`
	WebhookStatusCode *int                `json:"webhook_status_code,omitempty"`
	CreatedAt         time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcription) TableName() string {
	return "transcriptions"
}
