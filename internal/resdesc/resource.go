package resdesc

import "github.com/gogpu/rpsgraph/internal/access"

// Kind discriminates ResourceDesc's resource shape.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindImage1D
	KindImage2D
	KindImage3D
)

// Flags are creation-time hints on a ResourceDesc (spec §3).
type Flags uint32

const (
	FlagCubemapCompatible Flags = 1 << iota
	FlagRowMajor
	FlagPersistent
	FlagPreferGPULocalCPUVisible
	FlagPreferDedicated
)

// ResourceDesc is the discriminated description of a graph resource.
type ResourceDesc struct {
	Kind     Kind
	Format   access.Format
	Width    uint32
	Height   uint32 // unused for buffers; for buffers Width holds the low 32 bits of size and HeightHi the high 32 bits
	HeightHi uint32 // high 32 bits of a buffer's byte size; zero for images

	DepthOrArraySize uint32
	MipLevels        uint32
	SampleCount      uint32
	TemporalLayers   uint32
	Flags            Flags
}

// ByteSize returns the full 64-bit buffer size. Only meaningful when
// Kind == KindBuffer.
func (d ResourceDesc) ByteSize() uint64 {
	return uint64(d.Width) | uint64(d.HeightHi)<<32
}

// IsPersistent reports whether the resource's lifetime survives a frame.
func (d ResourceDesc) IsPersistent() bool {
	return d.Flags&FlagPersistent != 0
}

// normalizedTemporalLayers returns TemporalLayers, defaulting to 1.
func (d ResourceDesc) normalizedTemporalLayers() uint32 {
	if d.TemporalLayers == 0 {
		return 1
	}
	return d.TemporalLayers
}

// SubresourceRange addresses a rectangle in (mip, array layer, aspect) space.
type SubresourceRange struct {
	BaseMip         uint32
	MipCount        uint32
	BaseArrayLayer  uint32
	ArrayCount      uint32
	AspectMask      access.AspectMask
}

// FullRange computes the canonical "full" subresource range for a ResourceDesc.
func FullRange(d ResourceDesc) SubresourceRange {
	arrayCount := d.DepthOrArraySize
	if d.Kind == KindImage3D || d.Kind == KindBuffer {
		arrayCount = 1
	}
	mipCount := d.MipLevels
	if mipCount == 0 {
		mipCount = 1
	}
	if arrayCount == 0 {
		arrayCount = 1
	}
	return SubresourceRange{
		BaseMip:        0,
		MipCount:       mipCount,
		BaseArrayLayer: 0,
		ArrayCount:     arrayCount,
		AspectMask:     d.Format.Aspects(),
	}
}

// Overlaps reports whether two subresource ranges share at least one
// (mip, layer, aspect) point.
func (r SubresourceRange) Overlaps(o SubresourceRange) bool {
	if r.AspectMask&o.AspectMask == 0 {
		return false
	}
	if r.BaseMip+r.MipCount <= o.BaseMip || o.BaseMip+o.MipCount <= r.BaseMip {
		return false
	}
	if r.BaseArrayLayer+r.ArrayCount <= o.BaseArrayLayer || o.BaseArrayLayer+o.ArrayCount <= r.BaseArrayLayer {
		return false
	}
	return true
}

// Covers reports whether r fully covers o (used for discard-before inference:
// spec Open Question #1 resolved as "full range overwrite only", see
// internal/barrier).
func (r SubresourceRange) Covers(o SubresourceRange) bool {
	return r.AspectMask.Contains(o.AspectMask) &&
		r.BaseMip <= o.BaseMip && o.BaseMip+o.MipCount <= r.BaseMip+r.MipCount &&
		r.BaseArrayLayer <= o.BaseArrayLayer && o.BaseArrayLayer+o.ArrayCount <= r.BaseArrayLayer+r.ArrayCount
}

// Resource is a graph-visible resource: either owned by the graph (transient
// or persistent) or external (app-owned, referenced by handle only).
type Resource struct {
	ID         ResourceID
	Desc       ResourceDesc
	External   bool
	ExternalHandle any // opaque application handle; never dereferenced by the core
	DebugName  string
}

// TemporalSlice returns which physical slot temporal layer n (0 = current
// frame) maps to, wrapping modulo TemporalLayers per spec §3 invariants.
func (r Resource) TemporalSlice(n uint32) uint32 {
	layers := r.Desc.normalizedTemporalLayers()
	return n % layers
}
