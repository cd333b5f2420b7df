package schedule

import (
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// topoOrder performs spec §4.4 step 2: a topological sort over the live
// nodes respecting dependency edges derived from the access records
// (write-then-read, read-before-write, write-write unless both sides are
// Relaxed). Ties among simultaneously-ready nodes are broken by pick, so the
// reordering policies in policy.go can plug in their own tie-break (stable
// program order, or a seeded shuffle for FlagRandomOrder) without
// duplicating the graph walk.
func topoOrder(in Input, live map[resdesc.NodeID]bool, pick func(ready []resdesc.NodeID) int) []resdesc.NodeID {
	succs := buildEdges(in, live)

	indegree := map[resdesc.NodeID]int{}
	for id := range live {
		indegree[id] = 0
	}
	for _, tos := range succs {
		for _, to := range tos {
			indegree[to]++
		}
	}

	var ready []resdesc.NodeID
	for _, n := range in.Nodes {
		if live[n.ID] && indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	var out []resdesc.NodeID
	for len(ready) > 0 {
		best := pick(ready)
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		out = append(out, id)

		for _, to := range succs[id] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return out
}

// stableProgramOrderPick always selects the lowest-program-index ready
// node, matching spec §4.4 KeepProgramOrder ("stable topological order equal
// to original indices").
func stableProgramOrderPick(nodes []ir.Node) func([]resdesc.NodeID) int {
	return func(ready []resdesc.NodeID) int {
		best := 0
		bestIdx := programIndexOf(nodes, ready[0])
		for i := 1; i < len(ready); i++ {
			idx := programIndexOf(nodes, ready[i])
			if idx < bestIdx {
				best, bestIdx = i, idx
			}
		}
		return best
	}
}

func programIndexOf(nodes []ir.Node, id resdesc.NodeID) int {
	n, ok := nodeByID(nodes, id)
	if !ok {
		return 0
	}
	return n.ProgramIndex
}

// buildEdges derives dependency edges between live nodes from their access
// records to the same subresource (spec §4.4 step 2: "a directed edge exists
// from node A to node B when A writes a subresource that B reads or writes
// and there is no intervening writer, or when A reads a subresource that B
// writes, or when both write and at least one is not Relaxed").
func buildEdges(in Input, live map[resdesc.NodeID]bool) map[resdesc.NodeID][]resdesc.NodeID {
	byKey := map[subKey][]ir.AccessRecord{}
	for _, r := range in.AccessRecords {
		if !live[r.Node] {
			continue
		}
		byKey[keyOf(in.Resources, r)] = append(byKey[keyOf(in.Resources, r)], r)
	}
	for k, recs := range byKey {
		for i := 1; i < len(recs); i++ {
			for j := i; j > 0 && recs[j].ProgramIndex < recs[j-1].ProgramIndex; j-- {
				recs[j], recs[j-1] = recs[j-1], recs[j]
			}
		}
		byKey[k] = recs
	}

	succs := map[resdesc.NodeID][]resdesc.NodeID{}
	seen := map[[2]resdesc.NodeID]bool{}
	addEdge := func(a, b resdesc.NodeID) {
		if a == b {
			return
		}
		key := [2]resdesc.NodeID{a, b}
		if seen[key] {
			return
		}
		seen[key] = true
		succs[a] = append(succs[a], b)
	}

	for _, recs := range byKey {
		for i := range recs {
			// Only the nearest intervening writer matters for write->read
			// edges, so scan forward and stop extending write->read edges
			// past the first later write to the same subresource.
			wroteAgain := false
			for j := i + 1; j < len(recs) && !wroteAgain; j++ {
				a, b := recs[i], recs[j]
				if a.Node != b.Node {
					aWrite, bWrite := !a.Access.IsReadOnly(), !b.Access.IsReadOnly()
					switch {
					case aWrite && bWrite:
						if !(a.Access.Flags&access.FlagRelaxed != 0 && b.Access.Flags&access.FlagRelaxed != 0) {
							addEdge(a.Node, b.Node)
						}
					case aWrite && !bWrite:
						addEdge(a.Node, b.Node) // write then read, no intervening writer yet
					case !aWrite && bWrite:
						addEdge(a.Node, b.Node) // read before write
					}
				}
				if !b.Access.IsReadOnly() {
					wroteAgain = true
				}
			}
		}
	}

	// A live schedule-barrier node is ordered after every earlier live node
	// and before every later one, so no node crosses the barrier.
	for _, bn := range in.Nodes {
		if !live[bn.ID] || bn.Flags&ir.NodeFlagScheduleBarrier == 0 {
			continue
		}
		for _, n := range in.Nodes {
			if live[n.ID] && n.ProgramIndex < bn.ProgramIndex {
				addEdge(n.ID, bn.ID)
			} else if live[n.ID] && n.ProgramIndex > bn.ProgramIndex {
				addEdge(bn.ID, n.ID)
			}
		}
	}

	addSubgraphEdges(in, live, addEdge)
	return succs
}

// addSubgraphEdges enforces spec §4.4 step 5: sequential subgraphs disable
// reordering among members (chained program-order edges), and atomic
// subgraphs prevent foreign nodes from interleaving with their members (an
// edge from the last member to every live node that starts after the
// subgraph in program order, and from every live node before it to the
// first member, pins the members as a contiguous run without constraining
// their relative order to each other).
func addSubgraphEdges(in Input, live map[resdesc.NodeID]bool, addEdge func(a, b resdesc.NodeID)) {
	members := map[resdesc.SubgraphID][]ir.Node{}
	for _, n := range in.Nodes {
		if !live[n.ID] || n.Subgraph.IsZero() {
			continue
		}
		members[n.Subgraph] = append(members[n.Subgraph], n)
	}

	for sgID, ns := range members {
		sg, ok := subgraphByID(in.Subgraphs, sgID)
		if !ok {
			continue
		}
		if sg.IsSequential() {
			ordered := append([]ir.Node(nil), ns...)
			for i := 1; i < len(ordered); i++ {
				for j := i; j > 0 && ordered[j].ProgramIndex < ordered[j-1].ProgramIndex; j-- {
					ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
				}
			}
			for i := 1; i < len(ordered); i++ {
				addEdge(ordered[i-1].ID, ordered[i].ID)
			}
		}
		if sg.IsAtomic() {
			first, last := ns[0], ns[0]
			for _, n := range ns {
				if n.ProgramIndex < first.ProgramIndex {
					first = n
				}
				if n.ProgramIndex > last.ProgramIndex {
					last = n
				}
			}
			for _, n := range in.Nodes {
				if !live[n.ID] || n.Subgraph == sgID {
					continue
				}
				if n.ProgramIndex < first.ProgramIndex {
					addEdge(n.ID, first.ID)
				} else if n.ProgramIndex > last.ProgramIndex {
					addEdge(last.ID, n.ID)
				}
			}
		}
	}
}
