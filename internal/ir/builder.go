package ir

import (
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
)

// ParamAccess is what the builder needs per resource parameter to expand
// access records: the view it's bound to, and the declared access/semantic
// pair from the signature.
type ParamAccess struct {
	View   resdesc.View
	Access access.Access
}

// Builder translates one invocation of the entry callback into an immutable
// Graph IR (spec §4.2). A Builder is reset wholesale at the start of every
// update (spec §3 Lifecycles), so none of its storage needs to outlive one
// build and none of it needs locking (update is single-threaded cooperative,
// spec §5).
type Builder struct {
	nodes     *resdesc.NodeArena[Node]
	subgraphs *resdesc.SubgraphArena[Subgraph]
	resources *resdesc.ResourceArena
	access    []AccessRecord

	subgraphStack []resdesc.SubgraphID
	dataArena     []byte

	pendingAsync           bool
	pendingScheduleBarrier bool

	invalidErr error
}

// NewBuilder creates an empty Builder ready to accept one build's nodes.
func NewBuilder() *Builder {
	return &Builder{
		nodes:     resdesc.NewNodeArena[Node](32),
		subgraphs: resdesc.NewSubgraphArena[Subgraph](8),
		resources: resdesc.NewResourceArena(32),
	}
}

// PushSubgraph opens a nested scope; nodes added until the matching
// PopSubgraph inherit flags.
func (b *Builder) PushSubgraph(flags SubgraphFlags) resdesc.SubgraphID {
	parent := resdesc.SubgraphID{}
	if n := len(b.subgraphStack); n > 0 {
		parent = b.subgraphStack[n-1]
	}
	id := b.insertSubgraph(Subgraph{Parent: parent, Flags: flags})
	b.subgraphStack = append(b.subgraphStack, id)
	return id
}

// PopSubgraph closes the innermost open scope.
func (b *Builder) PopSubgraph() {
	if n := len(b.subgraphStack); n > 0 {
		b.subgraphStack = b.subgraphStack[:n-1]
	}
}

func (b *Builder) currentSubgraph() resdesc.SubgraphID {
	if n := len(b.subgraphStack); n > 0 {
		return b.subgraphStack[n-1]
	}
	return resdesc.SubgraphID{}
}

// SetAsync marks the next AddNode call as carrying an async scheduling
// hint (spec §4.2 "setAsync(hint)").
func (b *Builder) SetAsync() { b.pendingAsync = true }

// SetScheduleBarrier marks the next AddNode call as splitting the program
// into independent chunks at this point (spec §4.2 "setScheduleBarrier()").
func (b *Builder) SetScheduleBarrier() { b.pendingScheduleBarrier = true }

// AllocateData copies size bytes of stable storage out of the builder's bump
// arena, for the front-end to stash view records referenced from argument
// lists (spec §4.2 "allocateData(size) → stable pointer").
func (b *Builder) AllocateData(size int) []byte {
	if size <= 0 {
		return nil
	}
	start := len(b.dataArena)
	b.dataArena = append(b.dataArena, make([]byte, size)...)
	return b.dataArena[start : start+size]
}

// GetParamResourceID binds an entry resource parameter to a synthesized
// resource id (spec §4.2 "getParamResourceId(entryParamIndex) →
// resourceId"). Every call inserts a new Resource record, so two calls with
// the same description return two distinct ids.
func (b *Builder) GetParamResourceID(desc resdesc.ResourceDesc, external bool, handle any, debugName string) resdesc.ResourceID {
	return b.resources.Insert(resdesc.Resource{
		Desc:           desc,
		External:       external,
		ExternalHandle: handle,
		DebugName:      debugName,
	})
}

// AddNode appends a node in program order (spec §4.2 "addNode(queueClass,
// name, callback, userCtx, flags, paramValues[]) → nodeId"), expanding each
// resource parameter's declared access over its subresource range into
// access records, and validates per-node access unions.
func (b *Builder) AddNode(queueClass QueueClass, name string, callback Callback, userCtx any, flags NodeFlags, params []ParamAccess) (resdesc.NodeID, error) {
	nodeFlags := flags
	if b.pendingAsync {
		nodeFlags |= NodeFlagAsyncHint
		b.pendingAsync = false
	}
	if b.pendingScheduleBarrier {
		nodeFlags |= NodeFlagScheduleBarrier
		b.pendingScheduleBarrier = false
	}

	views := make([]resdesc.View, len(params))
	for i, p := range params {
		views[i] = p.View
	}

	programIndex := b.nodes.Len()
	node := Node{
		Name:         name,
		QueueClass:   queueClass,
		Callback:     callback,
		UserCtx:      userCtx,
		Flags:        nodeFlags,
		Subgraph:     b.currentSubgraph(),
		ProgramIndex: programIndex,
		ParamViews:   views,
	}
	nodeID := b.insertNode(node)
	b.nodes.GetMut(nodeID, func(n *Node) { n.ID = nodeID })

	if err := b.expandAccess(nodeID, programIndex, params); err != nil {
		if b.invalidErr == nil {
			b.invalidErr = err
		}
		return nodeID, err
	}
	return nodeID, nil
}

// expandAccess records per-subresource access for each of a node's resource
// parameters, merging same-node same-subresource accesses by union (spec
// §4.2 Tie-breaks) and rejecting semantically contradictory unions.
func (b *Builder) expandAccess(nodeID resdesc.NodeID, programIndex int, params []ParamAccess) error {
	type key struct {
		resource resdesc.ResourceID
		mip      uint32
		layer    uint32
		aspect   access.AspectMask
		temporal uint32
	}
	merged := map[key]access.Access{}
	order := []key{}

	for _, p := range params {
		if p.View.IsNull() {
			continue // spec §3: "A null view argument binds no resource and produces no access record."
		}
		rid := p.View.ResourceID()
		res, ok := b.resources.Get(rid)
		if !ok {
			return rpserr.Newf(rpserr.NotFound, "ir.AddNode", "unknown resource referenced by view")
		}
		rng := viewSubresourceRange(p.View, res)
		temporal := p.View.TemporalLayer()

		for mip := rng.BaseMip; mip < rng.BaseMip+rng.MipCount; mip++ {
			for layer := rng.BaseArrayLayer; layer < rng.BaseArrayLayer+rng.ArrayCount; layer++ {
				k := key{resource: rid, mip: mip, layer: layer, aspect: rng.AspectMask, temporal: temporal}
				if existing, found := merged[k]; found {
					merged[k] = access.Union(existing, p.Access)
				} else {
					merged[k] = p.Access
					order = append(order, k)
				}
			}
		}
	}

	for _, k := range order {
		a := merged[k]
		if err := access.ValidateUnion(a.Flags); err != nil {
			return rpserr.Wrap(rpserr.InvalidProgram, "ir.AddNode", err)
		}
		b.access = append(b.access, AccessRecord{
			Node:         nodeID,
			ProgramIndex: programIndex,
			Resource:     k.resource,
			SubresourceRange: resdesc.SubresourceRange{
				BaseMip: k.mip, MipCount: 1,
				BaseArrayLayer: k.layer, ArrayCount: 1,
				AspectMask: k.aspect,
			},
			Access:        a,
			TemporalLayer: k.temporal,
		})
	}
	return nil
}

func viewSubresourceRange(v resdesc.View, res resdesc.Resource) resdesc.SubresourceRange {
	switch v.Kind {
	case resdesc.ViewKindImage:
		return v.Image.SubresourceRange
	default:
		return resdesc.FullRange(res.Desc)
	}
}

// Nodes returns the finished node list in program order.
func (b *Builder) Nodes() []Node {
	out := make([]Node, 0, b.nodes.Len())
	b.nodes.ForEach(func(_ resdesc.NodeID, n Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Subgraphs returns the finished subgraph list.
func (b *Builder) Subgraphs() []Subgraph {
	out := make([]Subgraph, 0, b.subgraphs.Len())
	b.subgraphs.ForEach(func(_ resdesc.SubgraphID, s Subgraph) bool {
		out = append(out, s)
		return true
	})
	return out
}

// AccessRecords returns the expanded per-subresource access records in
// program order.
func (b *Builder) AccessRecords() []AccessRecord { return b.access }

// Resources returns the resource table referenced by this build.
func (b *Builder) Resources() *resdesc.ResourceArena { return b.resources }

// Err returns the first InvalidProgram/NotFound error encountered while
// expanding access records, or nil if the build is still valid.
func (b *Builder) Err() error { return b.invalidErr }

func (b *Builder) insertNode(n Node) resdesc.NodeID {
	return b.nodes.Insert(n)
}

func (b *Builder) insertSubgraph(s Subgraph) resdesc.SubgraphID {
	id := b.subgraphs.Insert(s)
	b.subgraphs.GetMut(id, func(sg *Subgraph) { sg.ID = id })
	return id
}

// Subgraph looks up a single subgraph scope by id.
func (b *Builder) Subgraph(id resdesc.SubgraphID) (Subgraph, bool) {
	return b.subgraphs.Get(id)
}
