// Package apperrors is the single translation boundary between backend
// failure modes and the closed error taxonomy the rest of the service
// observes. Nothing outside this package inspects mongo driver errors.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind is the closed set of application error kinds.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error pairs a Kind with a caller-safe message and the original cause.
// The cause is kept for logging only and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from a classified error, defaulting to Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Classify maps any backend failure onto exactly one Kind. Already
// classified errors pass through unchanged; unknown causes become Internal
// with the original error preserved for diagnostics.
func Classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return Wrap(KindNotFound, "record not found", err)
	case mongo.IsDuplicateKeyError(err):
		return Wrap(KindConflict, "a record with that title already exists", err)
	case errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err):
		return Wrap(KindUnavailable, "storage backend timed out", err)
	case mongo.IsNetworkError(err):
		return Wrap(KindUnavailable, "storage backend unreachable", err)
	default:
		return Wrap(KindInternal, "internal error", err)
	}
}

// HTTPStatus maps a Kind onto its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
