package access

import "fmt"

// Flags is the set of access kinds a node may declare on a subresource.
// Modeled on the teacher's BufferUses bitmask, generalized from "buffer use"
// to the full access vocabulary of spec §3.
type Flags uint32

const (
	FlagRenderTarget Flags = 1 << iota
	FlagDepthRead
	FlagDepthWrite
	FlagStencilRead
	FlagStencilWrite
	FlagShaderRead
	FlagShaderWrite
	FlagCopySrc
	FlagCopyDst
	FlagResolveSrc
	FlagResolveDst
	FlagPresent
	FlagIndirectArgs
	FlagVertexBuffer
	FlagIndexBuffer
	FlagConstantBuffer
	FlagShadingRateImage
	FlagPredication
	FlagStreamOut
	FlagRaytracingAS
	FlagClear
	FlagDiscardBefore
	FlagDiscardAfter
	FlagCPURead
	FlagCPUWrite
	FlagRelaxed
)

// writeFlags is the subset of Flags that mutate resource contents.
const writeFlags = FlagRenderTarget | FlagDepthWrite | FlagStencilWrite |
	FlagShaderWrite | FlagCopyDst | FlagResolveDst | FlagIndirectArgs |
	FlagStreamOut | FlagClear | FlagCPUWrite

// IsReadOnly reports whether the flag set contains no write access.
func (f Flags) IsReadOnly() bool {
	return f&writeFlags == 0
}

// IsEmpty reports whether no access flags are set.
func (f Flags) IsEmpty() bool {
	return f == 0
}

// Contains reports whether all flags in other are present in f.
func (f Flags) Contains(other Flags) bool {
	return f&other == other
}

// Stage identifies a shader stage an access may occur from.
type Stage uint16

const (
	StageVS Stage = 1 << iota
	StagePS
	StageCS
	StageGS
	StageHS
	StageDS
	StageTS
	StageMS
	StageRaytracing
)

// Semantic identifies a node parameter's well-known binding slot.
type Semantic struct {
	Kind  SemanticKind
	Index uint32 // render target index, vertex buffer slot, etc.
}

// SemanticKind enumerates the semantic slots spec §3 names.
type SemanticKind uint8

const (
	SemanticNone SemanticKind = iota
	SemanticRenderTarget
	SemanticDepthStencil
	SemanticClearColor
	SemanticClearDepth
	SemanticClearStencil
	SemanticViewport
	SemanticScissor
	SemanticVertexBuffer
	SemanticIndexBuffer
)

// Access is the declared intent a node has on a subresource: which access
// flags apply, from which shader stages, and under which semantic slot.
type Access struct {
	Flags    Flags
	Stages   Stage
	Semantic Semantic
}

// IsReadOnly reports whether this access performs no writes.
func (a Access) IsReadOnly() bool {
	return a.Flags.IsReadOnly()
}

// IsCompatible reports whether two accesses to the same subresource may
// coexist without a barrier between them. Mirrors BufferUses.IsCompatible:
// read-only accesses are always compatible with each other; any write
// requires the accesses to be identical; Relaxed allows reordering but still
// requires equal access bits (spec §3 invariants).
func (a Access) IsCompatible(b Access) bool {
	if a.Flags.IsEmpty() || b.Flags.IsEmpty() {
		return true
	}
	if a.IsReadOnly() && b.IsReadOnly() {
		return true
	}
	return a.Flags == b.Flags
}

// Union returns the access formed by merging two parameters' declared access
// to the same subresource on the same node (spec §4.2 tie-break: "the union
// of access flags is applied").
func Union(a, b Access) Access {
	return Access{
		Flags:    a.Flags | b.Flags,
		Stages:   a.Stages | b.Stages,
		Semantic: a.Semantic, // semantics don't merge; first parameter wins
	}
}

// ErrInvalidUnion is returned by ValidateUnion when a merged access flag set
// describes a semantically impossible combination.
type ErrInvalidUnion struct {
	Flags Flags
}

func (e *ErrInvalidUnion) Error() string {
	return fmt.Sprintf("invalid access union: flags %#x are not jointly satisfiable", uint32(e.Flags))
}

// ValidateUnion reports an error if the given merged flags describe a
// contradictory access (spec §4.2: "the node is flagged InvalidProgram").
// Depth/stencil read+write on the same pass is legal (read-write depth), so
// the only hard contradiction modeled here is a CPU read or CPU write
// combined with a GPU render-target, shader, depth or stencil write, which no
// backend can satisfy without an intervening sync point the graph itself must
// schedule, not merge into one access.
func ValidateUnion(f Flags) error {
	if f&(FlagCPURead|FlagCPUWrite) != 0 && f&(FlagRenderTarget|FlagShaderWrite|FlagDepthWrite|FlagStencilWrite) != 0 {
		return &ErrInvalidUnion{Flags: f}
	}
	return nil
}
