package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent failures of the insights pipeline
var (
	// Authentication
	ErrUnauthorized = errors.New("unauthorized")

	// Snapshot lifecycle
	ErrSnapshotNotLoaded = errors.New("ticket snapshot not loaded")
	ErrSourceUnavailable = errors.New("incident source unavailable")
	ErrSourceMalformed   = errors.New("incident source returned malformed data")
	ErrCacheUnavailable  = errors.New("incident cache unavailable")
	ErrNoIngestRuns      = errors.New("no ingest runs recorded")

	// Query validation
	ErrUnknownDimension = errors.New("unknown drill-down dimension")
	ErrUnknownBreakdown = errors.New("unknown breakdown")
	ErrUnknownTrend     = errors.New("unknown trend")
	ErrTicketNotFound   = errors.New("ticket not found")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewUnauthorizedError rejects a request whose credentials were checked
// and found invalid.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
