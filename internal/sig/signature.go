// Package sig implements signature and argument marshalling (spec §4.1):
// the fixed parameter-descriptor list an entry or node exposes, and the
// update-time argument/resource array validation and bump-buffer copy.
package sig

import (
	"reflect"

	"github.com/gogpu/rpsgraph/internal/access"
)

// ResourceKind constrains which view shape a resource parameter accepts.
type ResourceKind uint8

const (
	ResourceKindAny ResourceKind = iota
	ResourceKindBuffer
	ResourceKindImage
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindBuffer:
		return "buffer"
	case ResourceKindImage:
		return "image"
	default:
		return "any"
	}
}

// ParamFlags are per-parameter declaration hints.
type ParamFlags uint32

const (
	ParamFlagOptional ParamFlags = 1 << iota // declaration hint only; Bind accepts a null view for every resource parameter
	ParamFlagOutput
)

// ParamDesc describes one signature parameter: a constant-data parameter
// carries TypeInfo only; a resource parameter additionally carries an
// Access/Semantic pair (spec §4.1: "per-parameter {typeInfo, arraySize,
// flags, access, semantic}").
type ParamDesc struct {
	Name      string
	TypeInfo  reflect.Type // nil for a resource parameter with no constant payload
	ArraySize uint32       // 0 or 1 means scalar; >1 means a fixed-size array
	Flags        ParamFlags
	IsResource   bool
	ResourceKind ResourceKind
	Access       access.Access
}

// NodeDesc is the signature of one callback a program may bind a node name
// to, mirroring the spec's nested nodeDescs.
type NodeDesc struct {
	Name   string
	Params []ParamDesc
}

// Signature is the full entry or node signature (spec §6 "Entry/signature
// descriptor").
type Signature struct {
	Name      string
	Params    []ParamDesc
	NodeDescs []NodeDesc
}

// ParamCount returns the number of declared parameters.
func (s Signature) ParamCount() int { return len(s.Params) }

// Param returns the ParamDesc at index i, or (zero, false) if out of range.
func (s Signature) Param(i int) (ParamDesc, bool) {
	if i < 0 || i >= len(s.Params) {
		return ParamDesc{}, false
	}
	return s.Params[i], true
}
