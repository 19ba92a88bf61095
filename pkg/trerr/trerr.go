package trerr

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the translation request lifecycle. Submission-path
// errors (ValidationError, ConnectionError) surface synchronously to the
// caller; notification-path errors (NotFoundError, ProtocolError) are
// absorbed by the synchronization engine and only logged.

// FieldError is a single field-level complaint from a provider's
// structured validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError means the provider rejected the payload content. The
// field-level list is kept intact, never flattened to a string, so the
// caller can present it for editing and resubmission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "provider validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "provider validation failed: " + strings.Join(parts, "; ")
}

// ConnectionError is a transport or authentication failure against a
// provider. Recoverable by retry with backoff, but never automatically:
// the caller decides.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("provider connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConflictError means local state prevents the requested transition, e.g.
// reinsertion while a newer revision exists.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// NotFoundError means no matching internal request exists for an inbound
// notification. The request may have been legitimately deleted; this is
// logged, never escalated.
type NotFoundError struct {
	Reference string
}

func (e *NotFoundError) Error() string {
	return "no request matches reference " + e.Reference
}

// ProtocolError means the provider returned a well-formed but semantically
// unexpected event. The transition is dropped and the request left in its
// current state for manual inspection.
type ProtocolError struct {
	Provider string
	Event    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("provider %s sent unexpected event %q", e.Provider, e.Event)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
