// Package errors provides standardized error handling for the analysis pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeProviderUnavailable     ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout         ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderResponseInvalid ErrorCode = "PROVIDER_RESPONSE_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeMetricComputationFailed ErrorCode = "METRIC_COMPUTATION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError creates a retryable provider error. The
// pipeline recovers from it by moving to the next generation tier.
func NewProviderUnavailableError(mode string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   "NL-to-SQL provider call failed",
		Details:   fmt.Sprintf("mode: %s, error: %s", mode, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider timeout error.
func NewProviderTimeoutError(mode string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   "NL-to-SQL provider call timed out",
		Details:   fmt.Sprintf("mode: %s", mode),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderResponseInvalidError creates a non-retryable error for a
// malformed provider payload.
func NewProviderResponseInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderResponseInvalid,
		Message:   "NL-to-SQL provider returned a malformed response",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a terminal query execution error.
// The raw SQL error text stays in Details for logs and must not be surfaced
// to callers.
func NewQueryExecutionFailedError(category string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Query execution failed",
		Details:   fmt.Sprintf("category: %s, error: %s", category, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"category": category},
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Query timed out",
		Details:   fmt.Sprintf("category: %s", category),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMetricComputationFailedError creates an error the orchestrator recovers
// from by falling back to an unranked passthrough.
func NewMetricComputationFailedError(category, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMetricComputationFailed,
		Message:   "Metric computation failed",
		Details:   fmt.Sprintf("category: %s, %s", category, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"category": category},
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status the API layer should return.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeQueryExecutionFailed:
		return http.StatusBadRequest
	case ErrCodeQueryTimeout, ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicDetail returns the user-visible description for an error. Raw SQL or
// provider error text never leaks; callers get a generic description plus
// the category attempted when known.
func PublicDetail(err *StandardError) string {
	switch err.Code {
	case ErrCodeInvalidRequest:
		return err.Details
	case ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		if cat, ok := err.Metadata["category"].(string); ok && cat != "" {
			return fmt.Sprintf("the generated query could not be executed (analysis type: %s); please rephrase your question", cat)
		}
		return "the generated query could not be executed; please rephrase your question"
	default:
		return "the analysis could not be completed"
	}
}
