// Package ir holds the immutable graph intermediate representation produced
// by one run of the Graph Builder (spec §4.2): nodes in program order,
// subgraph scopes, and the per-subresource access records the builder
// expands from each node's bound parameters.
package ir

import (
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// QueueClass is a node's minimum required queue capability (spec §3: "A
// node's declared queue class is the minimum capability; the scheduler may
// place it on a more capable queue").
type QueueClass uint8

const (
	QueueClassGraphics QueueClass = iota
	QueueClassCompute
	QueueClassCopy
)

// NodeFlags are per-node scheduling hints.
type NodeFlags uint32

const (
	NodeFlagAsyncHint NodeFlags = 1 << iota
	NodeFlagScheduleBarrier
	// NodeFlagPure marks a node as having no effect observable outside its
	// declared resource writes (spec §4.4 step 1: user callbacks default to
	// non-pure/observable; built-in catalog nodes such as clears and copies
	// may be marked pure so dead-code elimination can remove them when their
	// writes are never read).
	NodeFlagPure
)

// Callback is the user-supplied node body, invoked by the record
// orchestrator once per scheduled occurrence.
type Callback func(ctx any) error

// Node is one entry in the graph's program-order node list.
type Node struct {
	ID         resdesc.NodeID
	Name       string
	QueueClass QueueClass
	Callback   Callback
	UserCtx    any
	Flags      NodeFlags
	Subgraph   resdesc.SubgraphID // zero value means root scope
	ProgramIndex int              // initial sequence number, stable even after scheduling

	// ParamViews holds the bound view for each resource parameter, in
	// signature-parameter order; non-resource parameters have a null view.
	ParamViews []resdesc.View
}

// SubgraphFlags describe a subgraph scope's ordering constraints.
type SubgraphFlags uint32

const (
	// SubgraphFlagAtomic prevents the scheduler from interleaving foreign
	// nodes among this subgraph's members; members may still be reordered
	// among themselves unless SubgraphFlagSequential is also set.
	SubgraphFlagAtomic SubgraphFlags = 1 << iota
	// SubgraphFlagSequential disables reordering among members.
	SubgraphFlagSequential
)

// Subgraph is a nested scope pushed/popped by the builder.
type Subgraph struct {
	ID     resdesc.SubgraphID
	Parent resdesc.SubgraphID // zero value means root scope
	Flags  SubgraphFlags
}

// IsAtomic reports whether s prevents interleaving of foreign nodes.
func (s Subgraph) IsAtomic() bool { return s.Flags&SubgraphFlagAtomic != 0 }

// IsSequential reports whether s disables reordering among its members.
func (s Subgraph) IsSequential() bool { return s.Flags&SubgraphFlagSequential != 0 }

// AccessRecord is one (node, subresource range, access) tuple, expanded by
// the builder from a node's bound parameters over their declared
// subresource range (spec §4.2: "the builder expands its access attribute
// over its subresource range to zero or more access records. An array
// parameter expands element-wise").
type AccessRecord struct {
	Node             resdesc.NodeID
	ProgramIndex     int
	Resource         resdesc.ResourceID
	SubresourceRange resdesc.SubresourceRange
	Access           access.Access
	TemporalLayer    uint32
}
