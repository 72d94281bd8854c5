package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode is a machine-readable error classification
type ErrorCode int

const (
	ErrorCode_INTERNAL ErrorCode = iota + 1000
	ErrorCode_BAD_REQUEST
	ErrorCode_INVALID_TRANSCRIPT_DATA
	ErrorCode_UPSTREAM_FETCH_FAILED
	ErrorCode_PERSISTENCE_FAILED
	ErrorCode_STORAGE_UNAVAILABLE
	ErrorCode_NOT_FOUND
	ErrorCode_HTTP_OK
)

// String returns the string form of the error code
func (c ErrorCode) String() string {
	switch c {
	case ErrorCode_INTERNAL:
		return "internal"
	case ErrorCode_BAD_REQUEST:
		return "bad-request"
	case ErrorCode_INVALID_TRANSCRIPT_DATA:
		return "invalid-transcript-data"
	case ErrorCode_UPSTREAM_FETCH_FAILED:
		return "upstream-fetch-failed"
	case ErrorCode_PERSISTENCE_FAILED:
		return "persistence-failed"
	case ErrorCode_STORAGE_UNAVAILABLE:
		return "storage-unavailable"
	case ErrorCode_NOT_FOUND:
		return "not-found"
	case ErrorCode_HTTP_OK:
		return "ok"
	default:
		return "unknown"
	}
}

// AppError là custom error type cho application
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Ingestion Errors

// ErrBadRequest covers malformed session ids and payloads that fail the
// minimal validation pass. The sender should not retry these.
func ErrBadRequest(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_BAD_REQUEST,
		Message:  message,
	}
}

// ErrInvalidTranscriptData covers schema violations on the full transcript
// record after the fetch step
func ErrInvalidTranscriptData(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_TRANSCRIPT_DATA,
		Message:  "Invalid transcript data",
	}
}

// ErrUpstreamFetchFailed surfaces as 500 so the provider redelivers the
// webhook once the transient condition clears
func ErrUpstreamFetchFailed(jobID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_UPSTREAM_FETCH_FAILED,
		Message:  "Failed to fetch transcript from provider",
	}.WithDetail("job_id", jobID)
}

func ErrPersistenceFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PERSISTENCE_FAILED,
		Message:  "Failed to persist transcription",
	}
}

func ErrStorageUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_UNAVAILABLE,
		Message:  "Storage unavailable",
	}
}
