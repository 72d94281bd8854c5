package transcription

import "github.com/classcaption-team/classcaption/internal/domain/entities"

// WebhookAck is the acknowledgment returned to the webhook sender
type WebhookAck struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
}

// SubmitResponse returns the upstream job id for a submitted audio URL
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ListResponse wraps the stored transcriptions for a session
type ListResponse struct {
	SessionID      string                    `json:"session_id"`
	Transcriptions []*entities.Transcription `json:"transcriptions"`
}
