package ingest

import (
	"errors"
	"testing"

	apperrors "github.com/classcaption-team/classcaption/errors"
)

func TestMinimalPass_RejectsMissingJobID(t *testing.T) {
	_, err := MinimalPass([]byte(`{"status":"completed"}`))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrorCode_BAD_REQUEST {
		t.Fatalf("expected bad-request, got %s", appErr.Code)
	}
}

func TestMinimalPass_RejectsUnknownStatus(t *testing.T) {
	_, err := MinimalPass([]byte(`{"transcript_id":"job-1","status":"exploded"}`))
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestMinimalPass_AcceptsIDSpelling(t *testing.T) {
	p, err := MinimalPass([]byte(`{"id":"job-1","status":"queued"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.JobID() != "job-1" {
		t.Fatalf("expected job-1, got %s", p.JobID())
	}
}

func TestFullPass_ToleratesUnknownFields(t *testing.T) {
	record, err := FullPass([]byte(`{
		"transcript_id": "job-1",
		"status": "completed",
		"text": "hello world",
		"brand_new_provider_field": {"nested": true}
	}`))
	if err != nil {
		t.Fatalf("unknown fields must not fail validation: %v", err)
	}
	if _, ok := record.Raw["brand_new_provider_field"]; !ok {
		t.Fatal("unknown fields should be retained in Raw")
	}
	if record.LanguageCode != "en" {
		t.Fatalf("expected default language en, got %s", record.LanguageCode)
	}
}

func TestFullPass_ConfidenceOutOfRange(t *testing.T) {
	_, err := FullPass([]byte(`{"id":"job-1","status":"completed","confidence":1.5}`))
	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrorCode_INVALID_TRANSCRIPT_DATA {
		t.Fatalf("expected invalid-transcript-data, got %s", appErr.Code)
	}
	if _, ok := appErr.Details["Confidence"]; !ok {
		t.Fatalf("expected field-level detail for confidence, got %v", appErr.Details)
	}
}

func TestFullPass_LowConfidenceIsWarningOnly(t *testing.T) {
	record, err := FullPass([]byte(`{"id":"job-1","status":"completed","confidence":0.42}`))
	if err != nil {
		t.Fatalf("in-range low confidence must validate: %v", err)
	}
	if !record.LowConfidence() {
		t.Fatal("0.42 should be flagged as low confidence")
	}
}

func TestFullPass_FetchedTranscriptShape(t *testing.T) {
	record, err := FullPass([]byte(`{
		"id": "job-9",
		"status": "completed",
		"text": "xin chào",
		"language_code": "vi",
		"audio_duration": 12.5,
		"words": [{"text":"xin","start":0,"end":0.4,"confidence":0.98,"speaker":"A"}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.JobID != "job-9" {
		t.Fatalf("expected id fallback to resolve job id, got %q", record.JobID)
	}
	if len(record.Words) != 1 || record.Words[0].Speaker != "A" {
		t.Fatalf("words not parsed: %+v", record.Words)
	}
}
