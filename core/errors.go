package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationKind categorizes a single-field validation failure.
type ValidationKind string

// Validation failure kinds raised by the validate package.
const (
	MissingField  ValidationKind = "missing_field"
	InvalidEnum   ValidationKind = "invalid_enum"
	InvalidRange  ValidationKind = "invalid_range"
	InvalidFormat ValidationKind = "invalid_format"
)

// ValidationError reports a failure to validate one field of a streamed
// payload. Validation errors are always recoverable: the enclosing event is
// still emitted with the offending sub-payload omitted.
type ValidationError struct {
	Kind   ValidationKind
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s) on field %q: %s", e.Kind, e.Field, e.Detail)
}

// NewMissingFieldError reports an absent mandatory field.
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{Kind: MissingField, Field: field, Detail: "required field is missing"}
}

// NewInvalidEnumError reports a value outside an enumerated set.
func NewInvalidEnumError(field string, got any) *ValidationError {
	return &ValidationError{Kind: InvalidEnum, Field: field, Detail: fmt.Sprintf("value %v is not allowed", got)}
}

// NewInvalidRangeError reports a numeric value outside its permitted range.
func NewInvalidRangeError(field, detail string) *ValidationError {
	return &ValidationError{Kind: InvalidRange, Field: field, Detail: detail}
}

// NewInvalidFormatError reports a value of an unusable type or shape.
func NewInvalidFormatError(field, detail string) *ValidationError {
	return &ValidationError{Kind: InvalidFormat, Field: field, Detail: detail}
}

// StreamTimeoutError indicates the connect window or the inactivity window
// elapsed. During the connect phase the runner recovers by falling back;
// during streaming it is terminal and surfaced to the consumer.
type StreamTimeoutError struct {
	Phase string // "connect" or "inactivity"
	Wait  time.Duration
}

// Error implements the error interface.
func (e *StreamTimeoutError) Error() string {
	return fmt.Sprintf("stream timeout: no activity within %s (%s phase)", e.Wait, e.Phase)
}

// StreamConnectionError indicates a transport-level failure (network loss,
// backend crash) or an unclassifiable processing failure wrapped so the
// consumer-facing error surface stays closed.
type StreamConnectionError struct {
	Cause error
}

// Error implements the error interface.
func (e *StreamConnectionError) Error() string {
	return fmt.Sprintf("stream connection failed: %v", e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StreamConnectionError) Unwrap() error { return e.Cause }

// ClassifyStreamError maps an arbitrary upstream error onto the closed error
// surface consumers see: StreamTimeoutError, StreamConnectionError, or nil.
// Already-classified errors pass through unchanged. Anything that matches
// neither the timeout nor the connection heuristics is wrapped as a
// connection error so a raw, unclassified error never escapes.
func ClassifyStreamError(err error, inactivity time.Duration) error {
	if err == nil {
		return nil
	}

	var te *StreamTimeoutError
	if errors.As(err, &te) {
		return te
	}
	var ce *StreamConnectionError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &StreamTimeoutError{Phase: "inactivity", Wait: inactivity}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline"):
		return &StreamTimeoutError{Phase: "inactivity", Wait: inactivity}
	default:
		return &StreamConnectionError{Cause: err}
	}
}
