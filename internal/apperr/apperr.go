// Package apperr defines the error-kind taxonomy of spec.md §7 and maps
// each kind to the HTTP status the transport layer should report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the four error kinds spec.md §7 distinguishes.
type Kind string

const (
	KindInvalidQuery        Kind = "invalid_query"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

// Error wraps an underlying cause with a Kind for transport-layer mapping.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind with a message only.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// InvalidQuery constructs a 400-mapped error.
func InvalidQuery(msg string) *Error { return New(KindInvalidQuery, msg) }

// NotFound constructs a 404-mapped error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// UpstreamUnavailable constructs a 502-mapped error, wrapping the provider
// failure that triggered it.
func UpstreamUnavailable(msg string, err error) *Error {
	return Wrap(KindUpstreamUnavailable, msg, err)
}

// Internal constructs a 500-mapped error, wrapping the unhandled cause.
func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, defaulting
// to KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps an error's Kind to the HTTP status code spec.md §7 assigns.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindInvalidQuery:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
