package schedule

import (
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// assignQueues walks the topologically-sorted live nodes and assigns each
// one a queue index and a position within that queue (spec §4.4 step 4),
// respecting each node's minimum QueueClass and its async-hint placement
// onto a secondary queue when the workload-pipelining flags allow it. Dead
// nodes (present in in.Nodes but absent from live) are returned separately
// for diagnostics.
func assignQueues(in Input, order []resdesc.NodeID, live map[resdesc.NodeID]bool) ([]Placement, []resdesc.NodeID) {
	numQueues := in.NumQueues
	if numQueues < 1 {
		numQueues = 1
	}
	queuePos := make([]int, numQueues)

	aggressive := in.Flags&FlagWorkloadTypePipeliningAggressive != 0
	disablePipelining := in.Flags&FlagWorkloadTypePipeliningDisable != 0

	placements := make([]Placement, 0, len(order))
	for _, id := range order {
		n, ok := nodeByID(in.Nodes, id)
		if !ok {
			continue
		}
		q := chooseQueue(in, n, numQueues, queuePos, aggressive, disablePipelining)
		placements = append(placements, Placement{NodeID: id, QueueIndex: q, Position: queuePos[q]})
		queuePos[q]++
	}

	var dead []resdesc.NodeID
	for _, n := range in.Nodes {
		if !live[n.ID] {
			dead = append(dead, n.ID)
		}
	}
	return placements, dead
}

// chooseQueue picks the queue index for n: the lowest-indexed queue
// satisfying n's class is the primary placement, unless an async hint (or
// FlagWorkloadTypePipeliningAggressive, which applies the hint everywhere)
// asks for a secondary queue of the same capability to run concurrently
// with the primary. FlagWorkloadTypePipeliningDisable forces every node
// back onto its primary queue regardless of hints.
func chooseQueue(in Input, n ir.Node, numQueues int, queuePos []int, aggressive, disablePipelining bool) int {
	candidates := candidateQueuesFor(in, numQueues, n.QueueClass)
	primary := candidates[0]
	if disablePipelining || len(candidates) < 2 {
		return primary
	}
	if n.Flags&ir.NodeFlagAsyncHint == 0 && !aggressive {
		return primary
	}

	best := candidates[1]
	for _, q := range candidates[1:] {
		if queuePos[q] < queuePos[best] {
			best = q
		}
	}
	return best
}

// candidateQueuesFor returns the indices (ascending) of queues capable of
// running a node of the given class: QueueClassPerIndex[q] <= class, since
// lower-numbered classes are strictly more capable (QueueClassGraphics
// satisfies compute and copy work too). A queue index with no configured
// per-index class counts as QueueClassGraphics; falls back to queue 0 when
// no queue qualifies.
func candidateQueuesFor(in Input, numQueues int, class ir.QueueClass) []int {
	var out []int
	for q := 0; q < numQueues; q++ {
		cls := ir.QueueClassGraphics
		if q < len(in.QueueClassPerIndex) {
			cls = in.QueueClassPerIndex[q]
		}
		if cls <= class {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		out = []int{0}
	}
	return out
}
