package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// deadLetterTTL keeps undelivered events around long enough for an operator
// to replay them before the key expires
const deadLetterTTL = 14 * 24 * time.Hour

// DeadLetterStore records webhook deliveries that validated cleanly but
// could not be persisted. Once an event lands here the webhook is
// acknowledged with 200, so this list is the only remaining copy: entries
// are replayed out of band against the transcription upsert.
type DeadLetterStore struct {
	client *redis.Client
}

// NewDeadLetterStore creates a dead-letter store backed by Redis
func NewDeadLetterStore(client *redis.Client) *DeadLetterStore {
	return &DeadLetterStore{client: client}
}

// DeadLetterEvent is the replayable envelope for a failed persistence
type DeadLetterEvent struct {
	SessionID  string          `json:"session_id"`
	JobID      string          `json:"job_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Reason     string          `json:"reason"`
	Payload    json.RawMessage `json:"payload"`
}

// Enqueue appends the event to the day's dead-letter list
func (s *DeadLetterStore) Enqueue(ctx context.Context, event DeadLetterEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode dead-letter event: %w", err)
	}

	key := fmt.Sprintf("ingest:deadletter:%s", event.ReceivedAt.UTC().Format("2006-01-02"))
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.Expire(ctx, key, deadLetterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue dead-letter event: %w", err)
	}
	return nil
}
