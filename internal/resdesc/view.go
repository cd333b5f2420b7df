package resdesc

import "github.com/gogpu/rpsgraph/internal/access"

// ViewFlags are creation-time hints on a View.
type ViewFlags uint32

const (
	// ViewFlagCubemap marks an ImageView as a cubemap or cubemap-array view
	// over a resource created with FlagCubemapCompatible.
	ViewFlagCubemap ViewFlags = 1 << iota
)

// ComponentMapping reorders or replaces the four channels a view exposes.
// Zero value is the identity mapping (each channel reads its own source).
type ComponentMapping struct {
	R, G, B, A access.Swizzle
}

// ImageView describes a view over a range of an image resource.
type ImageView struct {
	Resource         ResourceID
	ViewFormat       access.Format
	SubresourceRange SubresourceRange
	TemporalLayer    uint32
	Components       ComponentMapping
	Flags            ViewFlags
}

// BufferView describes a view over a byte range of a buffer resource,
// optionally typed as a structured buffer via StructureStride.
type BufferView struct {
	Resource        ResourceID
	ViewFormat      access.Format
	ByteOffset      uint64
	ByteSize        uint64
	StructureStride uint32
	TemporalLayer   uint32
}

// ViewKind discriminates the View tagged union.
type ViewKind uint8

const (
	ViewKindNull ViewKind = iota
	ViewKindImage
	ViewKindBuffer
)

func (k ViewKind) String() string {
	switch k {
	case ViewKindImage:
		return "image"
	case ViewKindBuffer:
		return "buffer"
	default:
		return "null"
	}
}

// View is a tagged union over ImageView, BufferView, or the null sentinel.
// A null view is a first-class value (spec §3): it has an invalid resource
// id and all fields zero, and denotes "no resource bound" for an optional
// node parameter.
type View struct {
	Kind   ViewKind
	Image  ImageView
	Buffer BufferView
}

// NullView is the canonical null view sentinel.
var NullView = View{Kind: ViewKindNull}

// NewImageView wraps an ImageView as a View.
func NewImageView(v ImageView) View {
	return View{Kind: ViewKindImage, Image: v}
}

// NewBufferView wraps a BufferView as a View.
func NewBufferView(v BufferView) View {
	return View{Kind: ViewKindBuffer, Buffer: v}
}

// IsNull reports whether v is the null sentinel.
func (v View) IsNull() bool {
	return v.Kind == ViewKindNull
}

// ResourceID returns the resource the view references, or InvalidResourceID
// for a null view.
func (v View) ResourceID() ResourceID {
	switch v.Kind {
	case ViewKindImage:
		return v.Image.Resource
	case ViewKindBuffer:
		return v.Buffer.Resource
	default:
		return InvalidResourceID
	}
}

// TemporalLayer returns the view's temporal layer selector, or 0 for a null
// view.
func (v View) TemporalLayer() uint32 {
	switch v.Kind {
	case ViewKindImage:
		return v.Image.TemporalLayer
	case ViewKindBuffer:
		return v.Buffer.TemporalLayer
	default:
		return 0
	}
}

// Equal reports structural equality between two views: same kind, and for
// image and buffer views the same view record.
func (v View) Equal(o View) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ViewKindImage:
		return v.Image == o.Image
	case ViewKindBuffer:
		return v.Buffer == o.Buffer
	default:
		return true
	}
}
