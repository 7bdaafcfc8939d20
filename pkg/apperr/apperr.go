// Package apperr defines the closed error taxonomy the engine exposes.
// Every raw failure crossing into the engine is classified into an *Error
// before it is stored or rethrown; nothing raw escapes to callers.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// Code identifies one member of the taxonomy.
type Code string

// Taxonomy codes. The validation family (required_field, invalid_format,
// out_of_range, duplicate_value) is always terminal and low severity.
const (
	CodeRequiredField Code = "required_field"
	CodeInvalidFormat Code = "invalid_format"
	CodeOutOfRange    Code = "out_of_range"
	CodeDuplicate     Code = "duplicate_value"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeNetwork       Code = "network"
	CodeTimeout       Code = "timeout"
	CodeUnavailable   Code = "unavailable"
	CodeUnknown       Code = "unknown"
)

// Severity grades how prominently a failure should surface.
type Severity int

// Severity levels.
const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// Error is a classified failure. Context carries structured detail (field
// names, range bounds) used to render UserMessage deterministically.
type Error struct {
	Code        Code
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	Context     map[string]any
	cause       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// IsValidation reports whether the error belongs to the validation family.
func (e *Error) IsValidation() bool {
	switch e.Code {
	case CodeRequiredField, CodeInvalidFormat, CodeOutOfRange, CodeDuplicate:
		return true
	}
	return false
}

// RequiredField reports a missing required field.
func RequiredField(field string) *Error {
	return &Error{
		Code:        CodeRequiredField,
		Message:     fmt.Sprintf("field %q is required", field),
		UserMessage: fmt.Sprintf("%s is required.", field),
		Severity:    SeverityLow,
		Context:     map[string]any{"field": field},
	}
}

// InvalidFormat reports a malformed field value.
func InvalidFormat(field, detail string) *Error {
	return &Error{
		Code:        CodeInvalidFormat,
		Message:     fmt.Sprintf("field %q is invalid: %s", field, detail),
		UserMessage: fmt.Sprintf("%s is invalid: %s", field, detail),
		Severity:    SeverityLow,
		Context:     map[string]any{"field": field, "detail": detail},
	}
}

// OutOfRange reports a field value outside its allowed bounds.
func OutOfRange(field string, min, max int) *Error {
	return &Error{
		Code:        CodeOutOfRange,
		Message:     fmt.Sprintf("field %q must be between %d and %d", field, min, max),
		UserMessage: fmt.Sprintf("%s must be between %d and %d.", field, min, max),
		Severity:    SeverityLow,
		Context:     map[string]any{"field": field, "min": min, "max": max},
	}
}

// Duplicate reports a value that already exists.
func Duplicate(field, value string) *Error {
	return &Error{
		Code:        CodeDuplicate,
		Message:     fmt.Sprintf("field %q already has an entry %q", field, value),
		UserMessage: fmt.Sprintf("%s %q already exists.", field, value),
		Severity:    SeverityLow,
		Context:     map[string]any{"field": field, "value": value},
	}
}

// NotFound reports a missing entity.
func NotFound(entity, id string) *Error {
	return &Error{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("%s %q not found", entity, id),
		UserMessage: fmt.Sprintf("The %s could not be found.", entity),
		Severity:    SeverityMedium,
		Context:     map[string]any{"entity": entity, "id": id},
	}
}

// Conflict reports a concurrent modification clash.
func Conflict(detail string) *Error {
	return &Error{
		Code:        CodeConflict,
		Message:     "conflicting update: " + detail,
		UserMessage: "The item was changed elsewhere. Reload and try again.",
		Severity:    SeverityMedium,
	}
}

// Network wraps a transport failure. Retryable.
func Network(cause error) *Error {
	return &Error{
		Code:        CodeNetwork,
		Message:     "network failure",
		UserMessage: "Connection problem. Your changes will be retried.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// Timeout wraps an operation that ran out of time. Retryable.
func Timeout(op string, cause error) *Error {
	return &Error{
		Code:        CodeTimeout,
		Message:     fmt.Sprintf("%s timed out", op),
		UserMessage: "The operation timed out. It will be retried.",
		Severity:    SeverityMedium,
		Retryable:   true,
		Context:     map[string]any{"operation": op},
		cause:       cause,
	}
}

// Unavailable wraps a transient backend failure. Retryable.
func Unavailable(cause error) *Error {
	return &Error{
		Code:        CodeUnavailable,
		Message:     "backend unavailable",
		UserMessage: "The service is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// Unknown wraps an unclassified failure observed during the named operation.
func Unknown(op string, cause error) *Error {
	return &Error{
		Code:        CodeUnknown,
		Message:     fmt.Sprintf("unknown error in %s", op),
		UserMessage: "Something went wrong. Please try again.",
		Severity:    SeverityHigh,
		Context:     map[string]any{"operation": op},
		cause:       cause,
	}
}

// Classify maps a raw failure into the taxonomy. Already-classified errors
// pass through unchanged. The op name is attached when a generic wrapper is
// needed.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, types.ErrNotFound):
		e := NotFound("entity", "")
		e.cause = err
		return e
	case errors.Is(err, types.ErrNameRequired):
		e := RequiredField("name")
		e.cause = err
		return e
	case errors.Is(err, types.ErrDuplicate):
		e := Duplicate("value", "")
		e.cause = err
		return e
	case errors.Is(err, types.ErrConflict):
		e := Conflict(err.Error())
		e.cause = err
		return e
	case errors.Is(err, types.ErrInvalidID):
		e := InvalidFormat("id", "malformed identifier")
		e.cause = err
		return e
	case errors.Is(err, types.ErrInvalidData):
		e := InvalidFormat("data", "malformed entity")
		e.cause = err
		return e
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout(op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout(op, err)
		}
		return Network(err)
	}

	return Unknown(op, err)
}

// IsRetryable reports whether err classifies as retryable.
func IsRetryable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
