package models

import "fmt"

// ErrorType categorizes turn failures for logging and metrics.
// Every TurnError is fatal for the current user request; the category
// only explains why.
type ErrorType int

const (
	ErrorTypeTransient       ErrorType = iota // Network, timeout, 5xx
	ErrorTypeContextOverflow                  // Context window exceeded
	ErrorTypeAPILimit                         // Rate limit (429)
	ErrorTypeMediaType                        // Stale non-text content tied to a continuation token
	ErrorTypeCanceled                         // Caller canceled the request
	ErrorTypeFatal                            // Anything else (4xx, malformed response)
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypeContextOverflow:
		return "ContextOverflow"
	case ErrorTypeAPILimit:
		return "APILimit"
	case ErrorTypeMediaType:
		return "MediaType"
	case ErrorTypeCanceled:
		return "Canceled"
	case ErrorTypeFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// TurnError is a classified failure of one exchange with the remote model.
type TurnError struct {
	Type       ErrorType `json:"type"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *TurnError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes the underlying transport error.
func (e *TurnError) Unwrap() error {
	return e.Cause
}

func newTurnError(t ErrorType, message string, cause error) *TurnError {
	return &TurnError{Type: t, Message: message, Cause: cause}
}

// NewTransientError creates a transient (network / server side) error.
func NewTransientError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeTransient, message, cause)
}

// NewContextOverflowError creates a context overflow error.
func NewContextOverflowError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeContextOverflow, message, cause)
}

// NewAPILimitError creates an API rate limit error.
func NewAPILimitError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeAPILimit, message, cause)
}

// NewMediaTypeError creates a media-type incompatibility error.
func NewMediaTypeError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeMediaType, message, cause)
}

// NewCanceledError creates an error for a caller-canceled request.
func NewCanceledError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeCanceled, message, cause)
}

// NewFatalError creates a fatal error.
func NewFatalError(message string, cause error) *TurnError {
	return newTurnError(ErrorTypeFatal, message, cause)
}
