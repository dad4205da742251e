// Package apperr defines the error taxonomy surfaced by the API: every failure
// carries a machine-readable kind so the frontend can distinguish "fix your
// input" from "try again" from "inspect manually".
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for API consumers.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindDeployment Kind = "deployment"
	KindConnection Kind = "connection"
	KindInternal   Kind = "internal"
)

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input. Never retried, surfaced before any
// engine mutation.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing stack/network/volume/container.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Deployment wraps a failure during resource creation. The stack has already
// been flipped to failed by the time this surfaces.
func Deployment(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindDeployment, Message: fmt.Sprintf(format, args...), Err: err}
}

// Connection reports an unreachable engine; callers may safely retry.
func Connection(err error) *Error {
	return &Error{Kind: KindConnection, Message: "docker engine unreachable", Err: err}
}

// KindOf extracts the Kind from an error chain, defaulting to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
