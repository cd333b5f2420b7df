// Package access defines the closed enumeration of resource formats and the
// access-attribute vocabulary (access flags, shader stages, semantics) that
// every node parameter and access record in the render graph is expressed in
// terms of.
package access

// Swizzle selects which source channel a view exposes through one
// destination channel of a ComponentMapping.
type Swizzle uint8

const (
	SwizzleIdentity Swizzle = iota
	SwizzleZero
	SwizzleOne
	SwizzleR
	SwizzleG
	SwizzleB
	SwizzleA
)

// Aspect identifies one plane of a resource format.
type Aspect uint8

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

// AspectMask is a set of Aspect values.
type AspectMask uint8

// Contains reports whether the mask includes every aspect in other.
func (m AspectMask) Contains(other AspectMask) bool {
	return m&other == other
}

// Format is a closed enumeration of pixel/buffer element formats.
type Format uint32

const (
	FormatUnknown Format = iota

	FormatR8Unorm
	FormatR8Uint
	FormatRG8Unorm
	FormatRGBA8Unorm
	FormatRGBA8UnormSRGB
	FormatBGRA8Unorm
	FormatBGRA8UnormSRGB

	FormatR16Float
	FormatRG16Float
	FormatRGBA16Float
	FormatR16Uint
	FormatRGBA16Uint

	FormatR32Float
	FormatRG32Float
	FormatRGBA32Float
	FormatR32Uint
	FormatRGBA32Uint

	FormatD16Unorm
	FormatD24UnormS8Uint
	FormatD32Float
	FormatD32FloatS8Uint
	FormatS8Uint

	// FormatTypeless is a typeless reservation: a resource may be created
	// with a typeless format and viewed through a differently-typed Format,
	// provided the element sizes agree (see CompatibleTypeless).
	FormatTypeless
)

// formatInfo holds the static metadata for one Format value.
type formatInfo struct {
	elementSize  uint32 // bytes per texel/element; 0 for FormatUnknown/FormatTypeless
	aspects      AspectMask
	sampleMask   uint32 // bitmask of supported sample counts (bit n set == 2^n samples supported; see SupportsSampleCount)
	typelessBase Format // the typeless format this format can be viewed as, or FormatUnknown
}

var formatTable = map[Format]formatInfo{
	FormatR8Unorm:        {elementSize: 1, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatR8Uint:         {elementSize: 1, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRG8Unorm:       {elementSize: 2, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA8Unorm:     {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA8UnormSRGB: {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatBGRA8Unorm:     {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatBGRA8UnormSRGB: {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},

	FormatR16Float:    {elementSize: 2, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRG16Float:   {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA16Float: {elementSize: 8, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatR16Uint:     {elementSize: 2, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA16Uint:  {elementSize: 8, aspects: AspectMask(AspectColor), sampleMask: 0b1111},

	FormatR32Float:    {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRG32Float:   {elementSize: 8, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA32Float: {elementSize: 16, aspects: AspectMask(AspectColor), sampleMask: 0b0001},
	FormatR32Uint:     {elementSize: 4, aspects: AspectMask(AspectColor), sampleMask: 0b1111},
	FormatRGBA32Uint:  {elementSize: 16, aspects: AspectMask(AspectColor), sampleMask: 0b0001},

	FormatD16Unorm:       {elementSize: 2, aspects: AspectMask(AspectDepth), sampleMask: 0b1111},
	FormatD24UnormS8Uint:  {elementSize: 4, aspects: AspectMask(AspectDepth | AspectStencil), sampleMask: 0b1111},
	FormatD32Float:        {elementSize: 4, aspects: AspectMask(AspectDepth), sampleMask: 0b1111},
	FormatD32FloatS8Uint:  {elementSize: 8, aspects: AspectMask(AspectDepth | AspectStencil), sampleMask: 0b1111},
	FormatS8Uint:          {elementSize: 1, aspects: AspectMask(AspectStencil), sampleMask: 0b1111},
}

// ElementSize returns the size in bytes of one element/texel of this format.
// Returns 0 for FormatUnknown and FormatTypeless, which carry no intrinsic size.
func (f Format) ElementSize() uint32 {
	return formatTable[f].elementSize
}

// Aspects returns the set of aspects (color/depth/stencil) this format exposes.
func (f Format) Aspects() AspectMask {
	return formatTable[f].aspects
}

// SupportsSampleCount reports whether this format may be used with the given
// MSAA sample count (1, 2, 4, 8, ...).
func (f Format) SupportsSampleCount(samples uint32) bool {
	if samples == 0 || (samples&(samples-1)) != 0 {
		return false // not a power of two
	}
	bit := uint32(0)
	for s := samples; s > 1; s >>= 1 {
		bit++
	}
	return formatTable[f].sampleMask&(1<<bit) != 0
}

// IsDepthStencil reports whether this format carries a depth or stencil aspect.
func (f Format) IsDepthStencil() bool {
	a := f.Aspects()
	return a&AspectMask(AspectDepth) != 0 || a&AspectMask(AspectStencil) != 0
}

// IsKnown reports whether f is a recognized, non-typeless format.
func (f Format) IsKnown() bool {
	_, ok := formatTable[f]
	return ok
}

// CompatibleTypeless reports whether a resource created with baseFormat may be
// viewed through viewFormat. Two formats are compatible if either is
// FormatTypeless, or if both declare the same element size.
func CompatibleTypeless(baseFormat, viewFormat Format) bool {
	if baseFormat == FormatTypeless || viewFormat == FormatTypeless {
		return true
	}
	if baseFormat == viewFormat {
		return true
	}
	return baseFormat.ElementSize() != 0 && baseFormat.ElementSize() == viewFormat.ElementSize()
}
