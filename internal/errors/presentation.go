package errors

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UserMessage returns a user-friendly error message
func UserMessage(err error) string {
	if pErr, ok := as(err); ok {
		return formatUserError(pErr)
	}
	return err.Error()
}

// formatUserError creates user-friendly error messages based on error type
func formatUserError(pErr *ParamError) string {
	switch pErr.Type {
	case ErrorTypeValidation:
		return formatValidationError(pErr)
	case ErrorTypeNetwork:
		return formatNetworkError(pErr)
	case ErrorTypeConfig:
		return formatConfigError(pErr)
	default:
		return pErr.Message
	}
}

func formatValidationError(pErr *ParamError) string {
	msg := pErr.Message
	if field, ok := pErr.Context["field"]; ok {
		msg = fmt.Sprintf("Invalid %s: %s", field, msg)
	}
	return msg
}

func formatNetworkError(pErr *ParamError) string {
	msg := pErr.Message
	if target, ok := pErr.Context["target"]; ok {
		msg = fmt.Sprintf("Error calling %s: %s", target, msg)
	}
	return msg
}

func formatConfigError(pErr *ParamError) string {
	msg := pErr.Message
	if key, ok := pErr.Context["key"]; ok {
		msg = fmt.Sprintf("Configuration error (%s): %s", key, msg)
	}
	return msg
}

// PresentError displays an error to the user through the global zerolog logger
// and exits.
func PresentError(err error) {
	if err == nil {
		return
	}
	presentTo(log.Fatal(), err)
}

// presentTo sends err, its context and cause on event.
func presentTo(event *zerolog.Event, err error) {
	if pErr, ok := as(err); ok {
		event = event.Fields(GetContext(pErr))
		if pErr.Cause != nil {
			event = event.Err(pErr.Cause)
		}
		event.Msg(UserMessage(pErr))
		return
	}
	event.Err(err).Msg("")
}

// DebugInfo returns detailed error information for debugging
func DebugInfo(err error) map[string]interface{} {
	info := map[string]interface{}{
		"error":   err.Error(),
		"type":    "unknown",
		"context": map[string]interface{}{},
	}

	if pErr, ok := as(err); ok {
		info["type"] = string(pErr.Type)
		info["message"] = pErr.Message
		info["context"] = pErr.Context

		if pErr.Cause != nil {
			info["cause"] = pErr.Cause.Error()
		}
	}

	return info
}
