// Package apperr classifies failures in the privileged request path.
// The classification is logged server-side; callers only ever see a
// generic response, so the Kind must never leak into HTTP bodies.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an error.
type Kind string

const (
	// Unauthenticated means the bearer credential was missing or rejected.
	Unauthenticated Kind = "unauthenticated"
	// BadRequest means a required request field was missing or malformed.
	BadRequest Kind = "bad_request"
	// NotFound means a referenced object (attachment, document) is absent.
	NotFound Kind = "not_found"
	// Configuration means a server-side secret or setting is unusable.
	Configuration Kind = "configuration"
	// Upstream means an external provider call failed.
	Upstream Kind = "upstream"
	// Internal is the catch-all for unclassified failures.
	Internal Kind = "internal"
)

// Error pairs an underlying cause with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind.
func New(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Newf wraps a formatted error with the given kind.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind recorded on err, or Internal if none is.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}
