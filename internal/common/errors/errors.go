// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnresolvableIntent  ErrorCode = "UNRESOLVABLE_INTENT"
	ErrCodeAmbiguousProduct    ErrorCode = "AMBIGUOUS_PRODUCT"
	ErrCodeInvalidIntent       ErrorCode = "INVALID_INTENT"
	ErrCodeDatabaseError       ErrorCode = "DATABASE_ERROR"
	ErrCodeQueryTimeout        ErrorCode = "QUERY_TIMEOUT"
	ErrCodeClassificationError ErrorCode = "CLASSIFICATION_ERROR"
	ErrCodeExportFailed        ErrorCode = "EXPORT_FAILED"
)

// StandardError represents a structured application error. Message is
// safe to show to an end user; Details is operator-only and is the
// only field allowed to carry internals.
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewUnresolvableIntentError creates a non-retryable resolution error.
// The user sees a help hint, never the raw text of their query.
func NewUnresolvableIntentError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnresolvableIntent,
		Message:   "I could not find a question in that message. Try something like \"marine insurance bookings this month\".",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousProductError creates a non-retryable error carrying the
// clarification options the user can pick from.
func NewAmbiguousProductError(options []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousProduct,
		Message:   "More than one product matches your question. Which one did you mean?",
		Retryable: false,
		Metadata:  map[string]interface{}{"clarificationOptions": options},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidIntentError marks a mapping gap: the resolved intent has
// no SQL template. Logged with details; the user gets a generic apology.
func NewInvalidIntentError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIntent,
		Message:   "Sorry, I cannot answer that kind of question yet.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a non-retryable (within one invocation)
// database error with a user-safe message.
func NewDatabaseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseError,
		Message:   "Data is temporarily unavailable. Please try again in a few minutes.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "That query took too long. Please try a narrower time range.",
		Details:   "statement exceeded the execution timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationError is only surfaced when the rule-based fallback
// also failed; normally classification failures degrade silently.
func NewClassificationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationError,
		Message:   "I could not understand that question right now. Please try rephrasing it.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a non-retryable export rendering error.
func NewExportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "The result file could not be generated.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeQueryTimeout, ErrCodeClassificationError:
		return 2
	default:
		return 0
	}
}

// ToBPMNError converts a StandardError to a BPMNError with the
// matching retry count.
func ToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   GetRetryCount(stdErr.Code),
		ErrorVariables: map[string]interface{}{
			"metadata":  stdErr.Metadata,
			"timestamp": stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
