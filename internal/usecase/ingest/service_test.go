package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/classcaption-team/classcaption/errors"
	"github.com/classcaption-team/classcaption/internal/domain/entities"
	"github.com/classcaption-team/classcaption/internal/infrastructure/cache"
)

const testSessionID = "3f1d9a52-7c44-4e6b-9d2f-8a1b3c5d7e9f"

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) GetTranscript(ctx context.Context, jobID string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

type fakeSessions struct {
	ensured []uuid.UUID
	err     error
}

func (f *fakeSessions) EnsureSession(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, id)
	return nil
}

type fakeTranscriptions struct {
	rows    map[string]*entities.Transcription
	err     error
	upserts int
}

func (f *fakeTranscriptions) Upsert(ctx context.Context, t *entities.Transcription) error {
	f.upserts++
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = make(map[string]*entities.Transcription)
	}
	f.rows[t.JobID] = t
	return nil
}

type fakeDeadLetter struct {
	events []cache.DeadLetterEvent
	err    error
}

func (f *fakeDeadLetter) Enqueue(ctx context.Context, event cache.DeadLetterEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type harness struct {
	fetcher        *fakeFetcher
	sessions       *fakeSessions
	transcriptions *fakeTranscriptions
	deadLetter     *fakeDeadLetter
	svc            Service
}

func newHarness() *harness {
	h := &harness{
		fetcher:        &fakeFetcher{},
		sessions:       &fakeSessions{},
		transcriptions: &fakeTranscriptions{},
		deadLetter:     &fakeDeadLetter{},
	}
	h.svc = NewService(h.fetcher, h.sessions, h.transcriptions, h.deadLetter, zap.NewNop())
	return h
}

func webhookBody(jobID, status string) []byte {
	return []byte(fmt.Sprintf(`{"transcript_id":%q,"status":%q}`, jobID, status))
}

func TestIngest_MalformedSessionID(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Ingest(context.Background(), "not-a-uuid", webhookBody("job-1", "queued"))

	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_BAD_REQUEST {
		t.Fatalf("expected bad-request, got %v", err)
	}
	if h.transcriptions.upserts != 0 || len(h.sessions.ensured) != 0 {
		t.Fatal("no store writes may occur for a malformed session id")
	}
}

func TestIngest_RejectsNonV4UUID(t *testing.T) {
	h := newHarness()
	// valid UUID shape but version nibble 1
	_, err := h.svc.Ingest(context.Background(), "3f1d9a52-7c44-1e6b-9d2f-8a1b3c5d7e9f", webhookBody("job-1", "queued"))
	if err == nil {
		t.Fatal("expected rejection of non-v4 uuid")
	}
}

func TestIngest_ProcessingStatusUsesPayloadDirectly(t *testing.T) {
	h := newHarness()
	res, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "processing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.fetcher.calls != 0 {
		t.Fatal("fetch must only run for completed status")
	}
	if res.Status != entities.TranscriptionStatusProcessing {
		t.Fatalf("unexpected status %s", res.Status)
	}
	if len(h.sessions.ensured) != 1 {
		t.Fatal("session must be ensured before persist")
	}
}

func TestIngest_CompletedFetchesAndDerivesMetrics(t *testing.T) {
	h := newHarness()
	h.fetcher.body = []byte(`{"id":"job-1","status":"completed","text":"hello world","audio_duration":2.0456}`)

	res, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "completed"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", h.fetcher.calls)
	}

	row := h.transcriptions.rows["job-1"]
	if row == nil {
		t.Fatal("expected persisted row for job-1")
	}
	if row.WordCount != 2 {
		t.Fatalf("expected word_count 2, got %d", row.WordCount)
	}
	if row.CharacterCount != 11 {
		t.Fatalf("expected character_count 11, got %d", row.CharacterCount)
	}
	if row.AudioDurationMs == nil || *row.AudioDurationMs != 2046 {
		t.Fatalf("expected audio_duration_ms 2046, got %v", row.AudioDurationMs)
	}
	if res.JobID != "job-1" {
		t.Fatalf("unexpected job id %s", res.JobID)
	}
}

func TestIngest_RedeliveryIsIdempotent(t *testing.T) {
	h := newHarness()
	h.fetcher.body = []byte(`{"id":"job-1","status":"completed","text":"hello world"}`)

	for i := 0; i < 3; i++ {
		if _, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "completed")); err != nil {
			t.Fatalf("delivery %d failed: %v", i, err)
		}
	}
	if len(h.transcriptions.rows) != 1 {
		t.Fatalf("expected exactly one row per job id, got %d", len(h.transcriptions.rows))
	}
	if h.transcriptions.upserts != 3 {
		t.Fatalf("each delivery performs its own upsert, got %d", h.transcriptions.upserts)
	}
}

func TestIngest_OutOfOrderLastWriteWins(t *testing.T) {
	h := newHarness()
	h.fetcher.body = []byte(`{"id":"job-1","status":"completed","text":"final text"}`)

	if _, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "completed")); err != nil {
		t.Fatalf("completed delivery failed: %v", err)
	}
	if _, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "processing")); err != nil {
		t.Fatalf("late processing delivery failed: %v", err)
	}

	row := h.transcriptions.rows["job-1"]
	if row.Status != entities.TranscriptionStatusProcessing {
		t.Fatalf("last delivery wins regardless of arrival order, got %s", row.Status)
	}
}

func TestIngest_FetchFailureWritesNothing(t *testing.T) {
	h := newHarness()
	h.fetcher.err = errors.New("provider unreachable")

	_, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "completed"))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_UPSTREAM_FETCH_FAILED {
		t.Fatalf("expected upstream-fetch-failed, got %v", err)
	}
	if h.transcriptions.upserts != 0 || len(h.sessions.ensured) != 0 {
		t.Fatal("fetch failure must leave the store untouched")
	}
}

func TestIngest_InvalidFullRecordWritesNothing(t *testing.T) {
	h := newHarness()
	body := []byte(`{"transcript_id":"job-1","status":"processing","confidence":1.5}`)

	_, err := h.svc.Ingest(context.Background(), testSessionID, body)
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_INVALID_TRANSCRIPT_DATA {
		t.Fatalf("expected invalid-transcript-data, got %v", err)
	}
	if h.transcriptions.upserts != 0 {
		t.Fatal("invalid record must not be written")
	}
}

func TestIngest_SessionStoreFailureIsLoud(t *testing.T) {
	h := newHarness()
	h.sessions.err = errors.New("connection refused")

	_, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "queued"))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_STORAGE_UNAVAILABLE {
		t.Fatalf("expected storage-unavailable, got %v", err)
	}
}

func TestIngest_PersistFailureDeadLettersAndDefers(t *testing.T) {
	h := newHarness()
	h.transcriptions.err = errors.New("disk full")

	res, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "queued"))
	if err != nil {
		t.Fatalf("dead-lettered delivery must still acknowledge: %v", err)
	}
	if !res.Deferred {
		t.Fatal("expected deferred acknowledgment")
	}
	if len(h.deadLetter.events) != 1 {
		t.Fatalf("expected one dead-letter event, got %d", len(h.deadLetter.events))
	}
	event := h.deadLetter.events[0]
	if event.JobID != "job-1" || event.SessionID != testSessionID {
		t.Fatalf("dead-letter event missing context: %+v", event)
	}
	var replay map[string]interface{}
	if err := json.Unmarshal(event.Payload, &replay); err != nil {
		t.Fatalf("dead-letter payload must be replayable JSON: %v", err)
	}
}

func TestIngest_PersistAndDeadLetterFailure(t *testing.T) {
	h := newHarness()
	h.transcriptions.err = errors.New("disk full")
	h.deadLetter.err = errors.New("redis down")

	_, err := h.svc.Ingest(context.Background(), testSessionID, webhookBody("job-1", "queued"))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_PERSISTENCE_FAILED {
		t.Fatalf("expected persistence-failed when no durable copy exists, got %v", err)
	}
}
