package transcription

// SubmitRequest asks the provider to transcribe classroom audio
type SubmitRequest struct {
	AudioURL string `json:"audio_url" validate:"required,url"`
}
