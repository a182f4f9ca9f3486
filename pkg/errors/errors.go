package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error, local or reported by the server
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates the session was rejected
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal client error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates a server failure or a transport error
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPError carries a non-2xx response from the feedback API.
type HTTPError struct {
	Status  int
	Payload map[string]interface{}
}

func (e *HTTPError) Error() string {
	if msg := e.Detail(); msg != "" {
		return fmt.Sprintf("status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// Detail returns the most descriptive message found in the payload.
func (e *HTTPError) Detail() string {
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := e.Payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	for field, v := range e.Payload {
		switch val := v.(type) {
		case []interface{}:
			if len(val) > 0 {
				return fmt.Sprintf("%s: %v", field, val[0])
			}
		case string:
			return fmt.Sprintf("%s: %s", field, val)
		}
	}
	return ""
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// FromStatus maps an API response status to the error taxonomy.
func FromStatus(message string, status int, payload map[string]interface{}) *AppError {
	httpErr := &HTTPError{Status: status, Payload: payload}
	switch {
	case status == http.StatusUnauthorized:
		return &AppError{Type: ErrorTypeUnauthorized, Message: message, Err: httpErr}
	case status == http.StatusNotFound:
		return &AppError{Type: ErrorTypeNotFound, Message: message, Err: httpErr}
	case status == http.StatusConflict:
		return &AppError{Type: ErrorTypeConflict, Message: message, Err: httpErr}
	case status >= 400 && status < 500:
		return &AppError{Type: ErrorTypeValidation, Message: message, Err: httpErr}
	default:
		return &AppError{Type: ErrorTypeExternal, Message: message, Err: httpErr}
	}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsUnauthorized reports whether err came from a rejected session.
func IsUnauthorized(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}

// IsClientError reports whether err is a 4xx-class failure other than 401.
// Client errors are shown inline and never retried.
func IsClientError(err error) bool {
	return IsType(err, ErrorTypeValidation) || IsType(err, ErrorTypeNotFound) || IsType(err, ErrorTypeConflict)
}

// IsRetryable reports whether a manual "try again" makes sense for err.
func IsRetryable(err error) bool {
	return IsType(err, ErrorTypeExternal)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// Payload returns the server error body carried by err, if any.
func Payload(err error) map[string]interface{} {
	var httpErr *HTTPError
	if stderrors.As(err, &httpErr) {
		return httpErr.Payload
	}
	return nil
}
