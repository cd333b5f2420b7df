// Package rpserr holds the error taxonomy shared across the graph build,
// schedule, and record pipeline (spec §7 "Error taxonomy matches the return
// enum"), plus the rich error types that carry per-site context. It is kept
// separate from the root package so every internal package can return and
// compare these errors without importing the public API surface.
package rpserr

import (
	"errors"
	"fmt"
)

// Code is the typed result code of the spec's return enum. Each
// succeeded/failed state is determined by the sign of the integer value,
// matching spec §6: "Each succeeded/failed is defined by sign of the integer
// code."
type Code int32

const (
	Ok               Code = 0
	InvalidArguments Code = -(iota)
	TypeMismatch
	IndexOutOfBounds
	NotFound
	OutOfMemory
	InvalidProgram
	NotImplemented
	Unspecified
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case InvalidArguments:
		return "InvalidArguments"
	case TypeMismatch:
		return "TypeMismatch"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	case NotFound:
		return "NotFound"
	case OutOfMemory:
		return "OutOfMemory"
	case InvalidProgram:
		return "InvalidProgram"
	case NotImplemented:
		return "NotImplemented"
	case Unspecified:
		return "Unspecified"
	default:
		return fmt.Sprintf("Code(%d)", int32(c))
	}
}

// Succeeded reports whether c represents success (non-negative).
func (c Code) Succeeded() bool { return c >= 0 }

// Failed reports whether c represents failure (negative).
func (c Code) Failed() bool { return c < 0 }

// Error wraps a Code with contextual detail, matching the teacher's
// {Resource, Field, Message, Cause}-shaped validation errors.
type Error struct {
	Code    Code
	Op      string // operation that failed, e.g. "update", "recordCommands"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error for the given code and operation.
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Message: cause.Error(), Cause: cause}
}

// CodeOf extracts the Code from err, defaulting to Unspecified for errors
// that did not originate in this package.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unspecified
}

// Is reports whether err carries the given Code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
