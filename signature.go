package rpsgraph

import (
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
	"github.com/gogpu/rpsgraph/internal/sig"
)

// Re-exported core types, aliased rather than wrapped (spec §6's
// entry/signature descriptor and node-parameter shapes are themselves the
// stable boundary, so the public API names the internal packages' types
// directly instead of duplicating them).
type (
	Signature  = sig.Signature
	ParamDesc  = sig.ParamDesc
	NodeDesc   = sig.NodeDesc
	ParamFlags = sig.ParamFlags

	ResourceID    = resdesc.ResourceID
	NodeID        = resdesc.NodeID
	SubgraphID    = resdesc.SubgraphID
	View          = resdesc.View
	ResourceDesc  = resdesc.ResourceDesc
	QueueClass    = ir.QueueClass
	NodeFlags     = ir.NodeFlags
	NodeCallback  = ir.Callback
	SubgraphFlags = ir.SubgraphFlags
)

const (
	ParamFlagOptional = sig.ParamFlagOptional
	ParamFlagOutput   = sig.ParamFlagOutput

	QueueClassGraphics = ir.QueueClassGraphics
	QueueClassCompute  = ir.QueueClassCompute
	QueueClassCopy     = ir.QueueClassCopy

	NodeFlagAsyncHint       = ir.NodeFlagAsyncHint
	NodeFlagScheduleBarrier = ir.NodeFlagScheduleBarrier
	NodeFlagPure            = ir.NodeFlagPure
)

// binding is one name's bound behavior: either a direct callback or a
// nested subprogram, never both.
type binding struct {
	callback ir.Callback
	userCtx  any
	flags    ir.NodeFlags
	sub      *Program
}

// Program is a named, reusable set of node-name → callback bindings (spec
// §6 "programBindNode(subprogram, nodeName, callback, userCtx, flags)").
// A Program's Signature carries the NodeDescs that declare which names are
// legal to bind.
type Program struct {
	Signature Signature
	bindings  map[string]binding
}

// NewProgram creates a Program over the given signature with no bindings.
func NewProgram(signature Signature) *Program {
	return &Program{Signature: signature, bindings: make(map[string]binding)}
}

func (p *Program) nodeDesc(name string) (NodeDesc, bool) {
	for _, nd := range p.Signature.NodeDescs {
		if nd.Name == name {
			return nd, true
		}
	}
	return NodeDesc{}, false
}

// BindNode binds nodeName to a callback invoked once per scheduled
// occurrence of a node the front-end declares under that name.
func (p *Program) BindNode(nodeName string, callback NodeCallback, userCtx any, flags NodeFlags) error {
	if _, ok := p.nodeDesc(nodeName); !ok {
		return rpserr.Newf(rpserr.NotFound, "Program.BindNode", "signature %q declares no node %q", p.Signature.Name, nodeName)
	}
	p.bindings[nodeName] = binding{callback: callback, userCtx: userCtx, flags: flags}
	return nil
}

// BindNodeSubprogram binds nodeName to a nested Program instead of a direct
// callback, replacing any earlier binding of that name. Resolve does not
// descend into sub: it reports NotFound for a name bound this way.
func (p *Program) BindNodeSubprogram(nodeName string, sub *Program) error {
	if _, ok := p.nodeDesc(nodeName); !ok {
		return rpserr.Newf(rpserr.NotFound, "Program.BindNodeSubprogram", "signature %q declares no node %q", p.Signature.Name, nodeName)
	}
	p.bindings[nodeName] = binding{sub: sub}
	return nil
}

// Resolve looks up nodeName's directly bound callback. It returns NotFound
// if nodeName is unbound or bound to a subprogram; nested subprograms are not
// searched.
func (p *Program) Resolve(nodeName string) (NodeCallback, any, NodeFlags, error) {
	b, ok := p.bindings[nodeName]
	if !ok {
		return nil, nil, 0, rpserr.Newf(rpserr.NotFound, "Program.Resolve", "node %q is unbound", nodeName)
	}
	if b.sub != nil {
		return nil, nil, 0, rpserr.Newf(rpserr.NotFound, "Program.Resolve", "node %q is bound to a subprogram, not a callback", nodeName)
	}
	return b.callback, b.userCtx, b.flags, nil
}
