// Package errors provides structured error handling with type
// classification and context propagation for the state engine.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error for metrics and handler
// decisions.
type ErrorType string

const (
	// TypeValidation indicates rejected input; state is unchanged.
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates a benign missing-entity outcome.
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates a uniqueness or duplication violation.
	TypeConflict ErrorType = "conflict"
	// TypePersistence indicates a failed durable write; the in-memory
	// state has been rolled back and no side effects may be applied.
	TypePersistence ErrorType = "persistence"
	// TypeTransport indicates a collaborator call failed after the
	// state mutation committed; state is not rolled back.
	TypeTransport ErrorType = "transport"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ValidationError creates a new validation error.
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

// NotFoundError creates a new not-found error.
func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message, Context: make(map[string]any)}
}

// ConflictError creates a new conflict error.
func ConflictError(message string) *Error {
	return &Error{Type: TypeConflict, Message: message, Context: make(map[string]any)}
}

// PersistenceError creates a new persistence error.
func PersistenceError(message string, cause error) *Error {
	return &Error{Type: TypePersistence, Message: message, Cause: cause, Context: make(map[string]any)}
}

// TransportError creates a new transport error.
func TransportError(message string, cause error) *Error {
	return &Error{Type: TypeTransport, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsType reports whether err is a structured error of the given type.
func IsType(err error, t ErrorType) bool {
	var structured *Error
	return errors.As(err, &structured) && structured.Type == t
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged. Otherwise wraps
// it as a transport error, the only category produced outside the
// core's own packages.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	return TransportError("unclassified error", err)
}
