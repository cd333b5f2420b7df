package rpsgraph

import (
	"errors"

	"github.com/gogpu/rpsgraph/internal/rpserr"
)

// Public API sentinel errors.
var (
	// ErrReleased is returned when operating on a device or graph that has
	// already been released.
	ErrReleased = errors.New("rpsgraph: object already released")

	// ErrNoBackend is returned when deviceCreate names a backend hook that
	// hal.Create has no factory registered for.
	ErrNoBackend = errors.New("rpsgraph: no backend hook registered under that name")
)

// Code is the public return-enum taxonomy (spec §6): each succeeded/failed
// state is determined by the sign of the value, re-exported so callers
// never need to import internal/rpserr directly.
type Code = rpserr.Code

const (
	Ok               = rpserr.Ok
	InvalidArguments = rpserr.InvalidArguments
	TypeMismatch     = rpserr.TypeMismatch
	IndexOutOfBounds = rpserr.IndexOutOfBounds
	NotFound         = rpserr.NotFound
	OutOfMemory      = rpserr.OutOfMemory
	InvalidProgram   = rpserr.InvalidProgram
	NotImplemented   = rpserr.NotImplemented
	Unspecified      = rpserr.Unspecified
)

// CodeOf extracts the return-enum Code from err, defaulting to Unspecified
// for errors that did not originate in this module.
func CodeOf(err error) Code { return rpserr.CodeOf(err) }
