package apperror

import (
	"errors"
	"fmt"
)

// Package apperror defines the error taxonomy shared by services, storage
// backends, and the HTTP layer. Every caller-visible failure carries a Kind
// and a safe message; internal causes are wrapped and never serialized.

// Kind classifies a failure for callers.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindAccessDenied           Kind = "ACCESS_DENIED"
	KindBadRequest             Kind = "BAD_REQUEST"
	KindUnsupportedFileType    Kind = "UNSUPPORTED_FILE_TYPE"
	KindFileTooLarge           Kind = "FILE_TOO_LARGE"
	KindQuotaExceeded          Kind = "QUOTA_EXCEEDED"
	KindInvalidArgument        Kind = "INVALID_ARGUMENT"
	KindInvalidTemplate        Kind = "INVALID_TEMPLATE"
	KindUnsupportedPlaceholder Kind = "UNSUPPORTED_PLACEHOLDER"
	KindRenderError            Kind = "RENDER_ERROR"
	KindInternal               Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to callers; Err
// holds the internal cause, if any.
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

// New builds an Error with the given kind and safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that keeps an internal cause for logging while
// exposing only the safe message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func AccessDenied() *Error {
	return New(KindAccessDenied, "access denied")
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func InvalidArgument(message string) *Error {
	return New(KindInvalidArgument, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the safe message of err, or a generic fallback when err
// is unclassified.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
