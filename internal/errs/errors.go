// Package errs provides the unified error type used across all of blobmover.
//
// Every backend (local, http, s3, gcs, webdav, …) wraps its native errors
// into *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing backend-specific packages.
//
// Usage:
//
//	// In a backend, wrap native errors:
//	return errs.Wrap(errs.ErrKindTransport, "failed to put object", sdkErr)
//
//	// In a caller, check the error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
// All backends (filesystem, HTTP, S3, GCS, WebDAV) map their native errors
// to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown         ErrKind = iota
	ErrKindNotFound                // no object at the requested key
	ErrKindUnsupported             // operation not permitted on this backend (read-only put)
	ErrKindTransport               // network, status code, permission or disk failure
	ErrKindConfiguration           // missing or invalid backend settings
	ErrKindUnsupportedKind         // backend kind matches no known variant
	ErrKindInvalidInput            // bad arguments from the caller (empty key, …)
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindTransport:
		return "transport"
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindUnsupportedKind:
		return "unsupported_kind"
	case ErrKindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all blobmover subsystems.
// Backends produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original client-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a missing object.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsUnsupported reports whether err was returned by a backend that does not
// permit the attempted operation.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// IsTransport reports whether err originated in the underlying client
// (network failure, non-success status, permission denial, disk I/O).
func IsTransport(err error) bool {
	return KindOf(err) == ErrKindTransport
}

// IsConfiguration reports whether err was caused by missing or invalid settings.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsUnsupportedKind reports whether err names a backend kind that does not exist.
func IsUnsupportedKind(err error) bool {
	return KindOf(err) == ErrKindUnsupportedKind
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
