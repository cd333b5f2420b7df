package schedule

import (
	"math/rand/v2"

	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// pickFuncFor selects the tie-break policy topoOrder uses among
// simultaneously-ready nodes, per spec §4.4 step 3's reordering flags.
//
// FlagRandomOrder takes over the decision entirely (a seeded shuffle).
// Otherwise KeepProgramOrder's stable tie-break is the base case, modified
// by FlagMinimizeComputeGfxSwitch (preferred first, as a queue-assignment
// bias during placement) and FlagPreferMemorySaving (breaks ties only
// within the set the first bias leaves undecided) — see DESIGN.md's Open
// Question decision on this pair.
func pickFuncFor(in Input) func([]resdesc.NodeID) int {
	if in.Flags&FlagRandomOrder != 0 {
		return randomOrderPick(in.Seed)
	}

	minimizeSwitch := in.Flags&FlagMinimizeComputeGfxSwitch != 0
	preferMemory := in.Flags&FlagPreferMemorySaving != 0
	if !minimizeSwitch && !preferMemory {
		return stableProgramOrderPick(in.Nodes)
	}

	lastUseCount := computeLastUseCounts(in)
	var lastClass ir.QueueClass
	haveLast := false

	return func(ready []resdesc.NodeID) int {
		best := 0
		for i := 1; i < len(ready); i++ {
			if preferred(in.Nodes, ready[i], ready[best], minimizeSwitch, preferMemory, lastClass, haveLast, lastUseCount) {
				best = i
			}
		}
		if n, ok := nodeByID(in.Nodes, ready[best]); ok {
			lastClass, haveLast = n.QueueClass, true
		}
		return best
	}
}

// preferred reports whether a should be picked ahead of b: first by the
// MinimizeComputeGfxSwitch bias (matching the previously-picked node's queue
// class avoids a switch), then by PreferMemorySaving (picking the node that
// ends the most resource lifetimes frees memory soonest), then falling back
// to stable program order.
func preferred(nodes []ir.Node, a, b resdesc.NodeID, minimizeSwitch, preferMemory bool, lastClass ir.QueueClass, haveLast bool, lastUseCount map[resdesc.NodeID]int) bool {
	an, _ := nodeByID(nodes, a)
	bn, _ := nodeByID(nodes, b)

	if minimizeSwitch && haveLast {
		aMatch := an.QueueClass == lastClass
		bMatch := bn.QueueClass == lastClass
		if aMatch != bMatch {
			return aMatch
		}
	}
	if preferMemory {
		as, bs := lastUseCount[a], lastUseCount[b]
		if as != bs {
			return as > bs
		}
	}
	return an.ProgramIndex < bn.ProgramIndex
}

// computeLastUseCounts scores each node by how many resources it is the
// final (highest program-index) accessor of — the candidates PreferMemorySaving
// favors, since those resources become eligible for aliasing reuse right
// after the node runs.
func computeLastUseCounts(in Input) map[resdesc.NodeID]int {
	lastRec := map[resdesc.ResourceID]ir.AccessRecord{}
	for _, r := range in.AccessRecords {
		if cur, ok := lastRec[r.Resource]; !ok || r.ProgramIndex > cur.ProgramIndex {
			lastRec[r.Resource] = r
		}
	}
	counts := map[resdesc.NodeID]int{}
	for _, r := range lastRec {
		counts[r.Node]++
	}
	return counts
}

// randomOrderPick implements FlagRandomOrder with a seeded, reproducible
// shuffle (spec §4.4: "RandomOrder... deterministic given the same seed").
func randomOrderPick(seed uint64) func([]resdesc.NodeID) int {
	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(ready []resdesc.NodeID) int {
		return src.IntN(len(ready))
	}
}
