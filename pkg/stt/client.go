package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/classcaption-team/classcaption/pkg/config"
	"github.com/classcaption-team/classcaption/pkg/retry"
)

// Client is a minimal client for the speech-to-text provider
type Client struct {
	apiKey   string
	baseURL  string
	attempts int
	delay    time.Duration
	client   *http.Client
}

// NewClient creates a provider client from config
func NewClient(cfg *config.STTConfig) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		attempts: cfg.FetchAttempts,
		delay:    cfg.FetchDelay,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitRequest is the payload for /v2/transcript
type SubmitRequest struct {
	AudioURL          string `json:"audio_url"`
	LanguageDetection bool   `json:"language_detection,omitempty"`
	WebhookURL        string `json:"webhook_url,omitempty"`
}

// SubmitResponse is the minimal submission response
type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// statusProbe is the slice of a transcript body the fetch loop inspects
type statusProbe struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// GetTranscript retrieves the full transcript record for a completed job.
// Retries with a fixed delay on transport errors, HTTP errors, and on a
// body whose own status reports an upstream processing error. The raw JSON
// body is returned so the caller keeps fields this client does not model.
func (c *Client) GetTranscript(ctx context.Context, jobID string) ([]byte, error) {
	var body []byte
	fetchFn := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v2/transcript/%s", c.baseURL, jobID), nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var probe statusProbe
		if err := json.Unmarshal(b, &probe); err != nil {
			return fmt.Errorf("provider returned unparseable body: %w", err)
		}
		if probe.Status == "error" {
			return fmt.Errorf("transcript job errored upstream: %s", probe.Error)
		}

		body = b
		return nil
	}

	if err := retry.Fixed(ctx, c.attempts, c.delay, fetchFn); err != nil {
		return nil, fmt.Errorf("fetch transcript %s: %w", jobID, err)
	}
	return body, nil
}

// SubmitTranscription requests the provider to transcribe an external audio
// URL, registering webhookURL for completion callbacks. Returns the job id.
func (c *Client) SubmitTranscription(ctx context.Context, audioURL, webhookURL string) (string, error) {
	payload := SubmitRequest{
		AudioURL:          audioURL,
		LanguageDetection: true,
		WebhookURL:        webhookURL,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var sr SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	return sr.ID, nil
}
