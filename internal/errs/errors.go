// Package errs provides the unified error type used across all of teamdb.
//
// Every subsystem (drivers, record store, schema engine, snapshot archive)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// driver-specific packages.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.ErrKindExternal, "proxy rejected tenant create", httpErr)
//
//	// In a caller — check error kind:
//	if errs.IsNotFound(err) {
//	    // team has no database record
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// All backends (self-hosted server, supavisor proxy, in-memory stub) map
// their native errors to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown         ErrKind = iota
	ErrKindConfig                  // missing or invalid connection configuration
	ErrKindNotFound                // missing record, tenant database, or table
	ErrKindAlreadyExists           // team already owns a database, at either layer
	ErrKindUnsupportedType         // column type outside the allow-list, or dialect without introspection
	ErrKindExternal                // admin connection or proxy control-plane failure
	ErrKindTimeout                 // context deadline / cancellation
	ErrKindQueryFailed             // SQL execution error
	ErrKindInvalidInput            // bad arguments from the caller
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfig:
		return "config"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindAlreadyExists:
		return "already_exists"
	case ErrKindUnsupportedType:
		return "unsupported_type"
	case ErrKindExternal:
		return "external"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all teamdb subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
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

// Newf creates an *Error with a formatted message and no cause.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConfig reports whether err was caused by missing or invalid configuration.
func IsConfig(err error) bool {
	return kindOf(err) == ErrKindConfig
}

// IsNotFound reports whether err represents a "not found" result
// (no record, missing tenant database, unknown table, …).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsAlreadyExists reports whether err represents a duplicate team database,
// at either the record layer or the data plane.
func IsAlreadyExists(err error) bool {
	return kindOf(err) == ErrKindAlreadyExists
}

// IsUnsupportedType reports whether err was caused by a column type outside
// the allow-list, or by introspection against a dialect that lacks it.
func IsUnsupportedType(err error) bool {
	return kindOf(err) == ErrKindUnsupportedType
}

// IsExternal reports whether err is an administrative-connection or
// proxy control-plane failure.
func IsExternal(err error) bool {
	return kindOf(err) == ErrKindExternal
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsQueryFailed reports whether err is a SQL execution failure.
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// kindOf extracts the ErrKind from any error in the chain.
func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
