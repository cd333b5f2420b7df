// Package hal defines the narrow backend boundary the render-graph core
// calls through (spec §4.9 Backend Hook Interface): a vtable of function
// pointers plus an opaque user context. No backend-specific types appear
// here — every argument is either a core data-model type defined in this
// package or in resdesc, or an opaque `any` handle the core never
// dereferences, matching spec §4.9: "no backend-specific types appear in
// the core data model." Transition and Placement are defined here, not in
// internal/barrier or internal/memplan, so an out-of-module backend can
// reference them to implement the vtable; those packages alias back to the
// definitions here.
package hal

import (
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
)

// Transition describes one resource subresource's required access change,
// the unit internal/barrier synthesizes and RecordTransition translates into
// native barriers.
type Transition struct {
	Resource    resdesc.ResourceID
	Range       resdesc.SubresourceRange
	Before      access.Access
	After       access.Access
	AtPosition  int // index into the global (cross-queue) schedule order
	DiscardData bool
}

// HeapType is the coarse memory-type bucket internal/memplan places a
// resource into.
type HeapType uint8

const (
	// HeapTypeDefault is device-local memory with no CPU-visibility guarantee.
	HeapTypeDefault HeapType = iota
	// HeapTypeGPULocalCPUVisible is device-local memory that is also
	// CPU-mappable, requested via FlagPreferGPULocalCPUVisible.
	HeapTypeGPULocalCPUVisible
)

// Placement is one resource's final memory assignment, as computed by
// internal/memplan.
type Placement struct {
	Resource resdesc.ResourceID
	HeapType HeapType
	Offset   uint64
}

// Hook is the backend vtable. The four realization/transition/pass
// operations are required (see Validate); ReleaseResource, SetDebugMarker,
// SetObjectName and CloneCommandContext may be left nil. The core never
// calls ReleaseResource, SetDebugMarker or SetObjectName, and
// CmdCallbackContext.Clone fails when CloneCommandContext is nil.
type Hook struct {
	// UserContext is passed back unmodified as the first argument of every
	// vtable entry, exactly as the teacher's CommandEncoderDescriptor-style
	// descriptors pass a caller-owned opaque payload through the HAL.
	UserContext any

	// RealizeResource binds a graph-owned (transient or persistent)
	// resource to backing memory after the memory planner runs, returning
	// an opaque backend handle.
	RealizeResource func(ctx any, id resdesc.ResourceID, desc resdesc.ResourceDesc, heap Placement) (any, error)

	// ReleaseResource releases a handle previously returned by
	// RealizeResource. Optional; the core does not call it, so realized
	// handles are never released through this hook.
	ReleaseResource func(ctx any, id resdesc.ResourceID, handle any)

	// RecordTransition translates one internal transition record into
	// native barriers on cmdBuffer.
	RecordTransition func(ctx any, cmdBuffer any, t Transition, handle any) error

	// BeginRenderPass starts a native render pass over the given
	// attachment set.
	BeginRenderPass func(ctx any, cmdBuffer any, attachments []resdesc.ResourceID) error

	// EndRenderPass ends the render pass most recently begun on cmdBuffer.
	EndRenderPass func(ctx any, cmdBuffer any) error

	// SetDebugMarker pushes a debug label onto cmdBuffer. Optional.
	SetDebugMarker func(ctx any, cmdBuffer any, label string)

	// SetObjectName assigns a debug name to a realized resource handle.
	// Optional.
	SetObjectName func(ctx any, handle any, name string)

	// CloneCommandContext allocates a secondary command buffer suitable
	// for parallel recording within the same batch. Optional; when nil,
	// CmdCallbackContext.Clone (spec §4.8 step 3) fails with
	// rpserr.NotImplemented.
	CloneCommandContext func(ctx any, cmdBuffer any) (any, error)
}

// Validate checks that every required vtable entry is populated.
func (h Hook) Validate() error {
	if h.RealizeResource == nil {
		return rpserr.New(rpserr.InvalidArguments, "hal.Validate", "RealizeResource is required")
	}
	if h.RecordTransition == nil {
		return rpserr.New(rpserr.InvalidArguments, "hal.Validate", "RecordTransition is required")
	}
	if h.BeginRenderPass == nil {
		return rpserr.New(rpserr.InvalidArguments, "hal.Validate", "BeginRenderPass is required")
	}
	if h.EndRenderPass == nil {
		return rpserr.New(rpserr.InvalidArguments, "hal.Validate", "EndRenderPass is required")
	}
	return nil
}

// SupportsCloning reports whether this hook can service
// CmdCallbackContext.Clone.
func (h Hook) SupportsCloning() bool { return h.CloneCommandContext != nil }
