package sig

import (
	"reflect"
	"unsafe"

	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
)

// bumpBuffer is an append-only byte arena that argument data is copied into,
// so callbacks can hold stable pointers for the lifetime of one graph build
// (spec §4.1: "Argument data is copied into a bump buffer held for the
// lifetime of one graph build"). It never shrinks mid-build; Reset truncates
// it back to empty at the start of the next build.
type bumpBuffer struct {
	buf []byte
}

func (b *bumpBuffer) alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	start := len(b.buf)
	b.buf = append(b.buf, make([]byte, size)...)
	return b.buf[start : start+size]
}

func (b *bumpBuffer) reset() {
	b.buf = b.buf[:0]
}

// ArgSet is the update-time argument binding: a parallel array of constant
// values and, for resource parameters, a parallel array of views.
type ArgSet struct {
	sig       Signature
	bump      bumpBuffer
	constants []reflect.Value // one entry per parameter; zero Value for resource params
	views     []resdesc.View  // one entry per parameter; zero View for constant params
}

// NewArgSet begins marshalling for the given signature, resetting any
// previously retained bump storage.
func NewArgSet(signature Signature) *ArgSet {
	return &ArgSet{sig: signature}
}

// Bind validates and copies args/resources against the signature, per the
// contract in spec §4.1:
//
//	update(frameIndex, completedFrameIndex, args[], resources[], ...)
//
// args and resources are parallel to the signature's Params: a constant
// parameter's entry comes from args at its index; a resource parameter's
// entry comes from resources at its index. Either slice may hold a nil /
// zero-value entry at indices belonging to the other kind.
func (a *ArgSet) Bind(args []any, resources []resdesc.View) error {
	n := a.sig.ParamCount()
	if len(args) != n || len(resources) != n {
		return rpserr.Newf(rpserr.InvalidArguments, "sig.Bind",
			"argument count %d/%d does not match signature length %d", len(args), len(resources), n)
	}

	a.bump.reset()
	a.constants = make([]reflect.Value, n)
	a.views = make([]resdesc.View, n)

	for i, p := range a.sig.Params {
		if p.IsResource {
			v := resources[i]
			if !v.IsNull() && !resourceShapeMatches(p, v) {
				return rpserr.Newf(rpserr.TypeMismatch, "sig.Bind",
					"parameter %q: declared %s kind disagrees with provided %s view", p.Name, p.ResourceKind, v.Kind)
			}
			a.views[i] = v
			continue
		}
		if p.TypeInfo == nil {
			continue
		}
		val := reflect.ValueOf(args[i])
		if !val.IsValid() {
			continue
		}
		if val.Type() != p.TypeInfo {
			return rpserr.Newf(rpserr.TypeMismatch, "sig.Bind",
				"parameter %q: expected %s, got %s", p.Name, p.TypeInfo, val.Type())
		}
		size := int(p.TypeInfo.Size())
		if size == 0 {
			a.constants[i] = val
			continue
		}
		dst := a.bump.alloc(size)
		stored := reflect.NewAt(p.TypeInfo, unsafe.Pointer(&dst[0])).Elem()
		stored.Set(val)
		a.constants[i] = stored
	}
	return nil
}

// resourceShapeMatches reports whether a view's kind agrees with a resource
// parameter's declared ResourceKind. ResourceKindAny accepts either view
// kind, matching parameters whose signature doesn't constrain the shape
// (e.g. a generic "handle" parameter forwarded to a subprogram).
func resourceShapeMatches(p ParamDesc, v resdesc.View) bool {
	switch p.ResourceKind {
	case ResourceKindBuffer:
		return v.Kind == resdesc.ViewKindBuffer
	case ResourceKindImage:
		return v.Kind == resdesc.ViewKindImage
	default:
		return true
	}
}

// Constant returns the bound constant value for parameter index i.
func (a *ArgSet) Constant(i int) (any, error) {
	if i < 0 || i >= len(a.constants) {
		return nil, rpserr.Newf(rpserr.IndexOutOfBounds, "sig.Constant", "index %d out of range [0,%d)", i, len(a.constants))
	}
	v := a.constants[i]
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// View returns the bound view for resource parameter index i.
func (a *ArgSet) View(i int) (resdesc.View, error) {
	if i < 0 || i >= len(a.views) {
		return resdesc.View{}, rpserr.Newf(rpserr.IndexOutOfBounds, "sig.View", "index %d out of range [0,%d)", i, len(a.views))
	}
	return a.views[i], nil
}

// ArrayElement returns the view bound at array index elem of a resource
// parameter declared with ArraySize > 1. Array elements are packed
// contiguously into the views slice starting at the parameter's own index;
// the caller passes the parameter's base index.
func (a *ArgSet) ArrayElement(paramIndex, elem int) (resdesc.View, error) {
	p, ok := a.sig.Param(paramIndex)
	if !ok {
		return resdesc.View{}, rpserr.Newf(rpserr.IndexOutOfBounds, "sig.ArrayElement", "param index %d out of range", paramIndex)
	}
	if uint32(elem) >= p.ArraySize {
		return resdesc.View{}, rpserr.Newf(rpserr.IndexOutOfBounds, "sig.ArrayElement",
			"array index %d out of bounds for arraySize %d", elem, p.ArraySize)
	}
	idx := paramIndex + elem
	if idx < 0 || idx >= len(a.views) {
		return resdesc.View{}, rpserr.Newf(rpserr.IndexOutOfBounds, "sig.ArrayElement", "expanded index %d out of range", idx)
	}
	return a.views[idx], nil
}
