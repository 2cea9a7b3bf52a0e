package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProtocol   ErrorType = "protocol"
	ErrorTypeInternal   ErrorType = "internal"
)

// Reasons recorded under the "reason" context key.
const (
	ReasonAuthMissing           = "auth_missing"
	ReasonAuthMalformed         = "auth_malformed"
	ReasonAuthInvalid           = "auth_invalid"
	ReasonParameterMissing      = "parameter_missing"
	ReasonParameterUnrecognized = "parameter_unrecognized"
	ReasonBodyMalformed         = "body_malformed"
	ReasonPayloadMalformed      = "payload_malformed"
)

// ParamError represents a structured error with context
type ParamError struct {
	Type    ErrorType
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *ParamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping
func (e *ParamError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a specific type
func (e *ParamError) Is(target error) bool {
	if targetErr, ok := target.(*ParamError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ParamError) WithContext(key string, value interface{}) *ParamError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithReason is shorthand for WithContext("reason", reason)
func (e *ParamError) WithReason(reason string) *ParamError {
	return e.WithContext("reason", reason)
}

// Reason returns the recorded reason, or "" if none was set.
func (e *ParamError) Reason() string {
	r, _ := e.Context["reason"].(string)
	return r
}

// New creates a new ParamError
func New(errType ErrorType, message string) *ParamError {
	return &ParamError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *ParamError {
	return &ParamError{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *ParamError {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// Newf creates a new ParamError with formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *ParamError {
	return New(errType, fmt.Sprintf(format, args...))
}

// as finds the outermost ParamError in the chain.
func as(err error) (*ParamError, bool) {
	var pErr *ParamError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if pErr, ok := as(err); ok {
		return pErr.Type == errType
	}
	return false
}

// GetType returns the error type, or ErrorTypeInternal if not a ParamError
func GetType(err error) ErrorType {
	if pErr, ok := as(err); ok {
		return pErr.Type
	}
	return ErrorTypeInternal
}

// GetContext returns context information from the error
func GetContext(err error) map[string]interface{} {
	if pErr, ok := as(err); ok {
		return pErr.Context
	}
	return nil
}

// GetReason returns the reason recorded on the error, or "".
func GetReason(err error) string {
	if pErr, ok := as(err); ok {
		return pErr.Reason()
	}
	return ""
}

// StatusCode maps an error to the HTTP-like status the function answers with.
func StatusCode(err error) int {
	switch GetType(err) {
	case ErrorTypeAuth:
		return http.StatusForbidden
	case ErrorTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
