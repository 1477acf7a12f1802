package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a resource does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrExists is returned when a unique field is already taken
	ErrExists = errors.New("resource already exists")
	// ErrValidation is returned for malformed or missing input
	ErrValidation = errors.New("validation failed")
	// ErrInvalidID is returned when an identifier cannot be parsed by the storage layer
	ErrInvalidID = errors.New("invalid identifier")
	// ErrUnauthenticated is returned when a request carries no valid session
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied is returned when the caller lacks the role or ownership required
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPreconditionFailed is returned when a compare-and-set update matched nothing
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrUpstream is returned when the image host or mail provider fails
	ErrUpstream = errors.New("upstream service failure")
	// ErrCanceled is returned when the operation is canceled by the client
	ErrCanceled = errors.New("operation canceled")
)

// Error carries a user-facing message next to one of the sentinel kinds above.
// errors.Is matches both the kind and any wrapped cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kind while keeping msg as the message shown to clients.
func Wrap(kind error, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// WrapError wraps storage errors to model errors.
// It converts context.Canceled and context.DeadlineExceeded to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// It checks both direct context errors and wrapped errors (e.g., from MongoDB driver).
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
