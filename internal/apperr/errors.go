// Package apperr defines the error kinds surfaced at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error kind returned to clients
type Kind string

// Input validation kinds
const (
	KindAgeNotConfirmed      Kind = "age_not_confirmed"
	KindMissingImage         Kind = "missing_image"
	KindEmptyImage           Kind = "empty_image"
	KindFileTooLarge         Kind = "file_too_large"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindInvalidForm          Kind = "invalid_form"
)

// Upstream kinds
const (
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamTimeout     Kind = "upstream_timeout"
	KindUpstreamRateLimited Kind = "upstream_rate_limited"
)

const (
	KindCanceled Kind = "canceled"
	KindInternal Kind = "internal"
)

// Error is an application error carrying a kind
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal when err carries none
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is an input validation error
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindAgeNotConfirmed, KindMissingImage, KindEmptyImage, KindFileTooLarge,
		KindUnsupportedMediaType, KindInvalidForm:
		return true
	}
	return false
}

// IsUpstream reports whether err came from the external model call
func IsUpstream(err error) bool {
	switch KindOf(err) {
	case KindUpstreamUnavailable, KindUpstreamTimeout, KindUpstreamRateLimited:
		return true
	}
	return false
}

// HTTPStatus maps a kind to its response status
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindAgeNotConfirmed, KindMissingImage, KindEmptyImage, KindInvalidForm:
		return http.StatusBadRequest
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindUpstreamUnavailable, KindUpstreamTimeout, KindUpstreamRateLimited:
		return http.StatusBadGateway
	case KindCanceled:
		// nginx's "client closed request"
		return 499
	default:
		return http.StatusInternalServerError
	}
}
