package schedule

import (
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

type subKey struct {
	resource resdesc.ResourceID
	mip      uint32
	layer    uint32
	aspect   access.AspectMask
	temporal uint32
}

// keyOf identifies the physical subresource slice r accesses, routing the
// record's TemporalLayer selector through Resource.TemporalSlice so two
// accesses naming different wrapped slices of the same declared layer count
// are never treated as the one subresource.
func keyOf(resources *resdesc.ResourceArena, r ir.AccessRecord) subKey {
	temporal := r.TemporalLayer
	if res, ok := resources.Get(r.Resource); ok {
		temporal = res.TemporalSlice(r.TemporalLayer)
	}
	return subKey{
		resource: r.Resource,
		mip:      r.SubresourceRange.BaseMip,
		layer:    r.SubresourceRange.BaseArrayLayer,
		aspect:   r.SubresourceRange.AspectMask,
		temporal: temporal,
	}
}

// computeLive runs spec §4.4 step 1 (dead-code elimination) via reverse
// flood-fill from observable sinks: non-pure nodes, and any node writing to
// a persistent or external resource. Returns the set of live node ids.
func computeLive(in Input) map[resdesc.NodeID]bool {
	live := map[resdesc.NodeID]bool{}
	if in.Flags&FlagDisableDeadCodeElimination != 0 {
		for _, n := range in.Nodes {
			live[n.ID] = true
		}
		return live
	}

	// byKey holds every access to a subresource in ascending program order.
	byKey := map[subKey][]ir.AccessRecord{}
	for _, r := range in.AccessRecords {
		byKey[keyOf(in.Resources, r)] = append(byKey[keyOf(in.Resources, r)], r)
	}
	for k := range byKey {
		recs := byKey[k]
		for i := 1; i < len(recs); i++ {
			for j := i; j > 0 && recs[j].ProgramIndex < recs[j-1].ProgramIndex; j-- {
				recs[j], recs[j-1] = recs[j-1], recs[j]
			}
		}
		byKey[k] = recs
	}

	var worklist []resdesc.NodeID
	markLive := func(id resdesc.NodeID) {
		if !live[id] {
			live[id] = true
			worklist = append(worklist, id)
		}
	}

	for _, n := range in.Nodes {
		if n.Flags&ir.NodeFlagPure == 0 {
			markLive(n.ID)
		}
	}

	for _, r := range in.AccessRecords {
		if r.Access.IsReadOnly() {
			continue
		}
		res, ok := in.Resources.Get(r.Resource)
		if ok && (res.External || res.Desc.IsPersistent()) {
			markLive(r.Node)
		}
	}

	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, r := range in.AccessRecords {
			if r.Node != id || !r.Access.IsReadOnly() {
				continue
			}
			producer, found := lastWriterBefore(byKey[keyOf(in.Resources, r)], r.ProgramIndex)
			if found {
				markLive(producer)
			}
		}
	}

	return live
}

// lastWriterBefore finds the node that most recently wrote the subresource
// identified by recs (sorted ascending by ProgramIndex) strictly before
// position.
func lastWriterBefore(recs []ir.AccessRecord, position int) (resdesc.NodeID, bool) {
	var last resdesc.NodeID
	found := false
	for _, r := range recs {
		if r.ProgramIndex >= position {
			break
		}
		if !r.Access.IsReadOnly() {
			last = r.Node
			found = true
		}
	}
	return last, found
}
