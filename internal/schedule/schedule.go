// Package schedule turns a builder's program-order nodes and access records
// into a linear, per-queue schedule: dead-code elimination, dependency-
// respecting topological sort, queue assignment, and reordering under policy
// flags (spec §4.4).
package schedule

import (
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// Flags mirror the spec's scheduleFlags bitmask.
type Flags uint32

const (
	FlagDisableDeadCodeElimination Flags = 1 << iota
	FlagMinimizeComputeGfxSwitch
	FlagPreferMemorySaving
	FlagRandomOrder
	FlagWorkloadTypePipeliningAggressive
	FlagWorkloadTypePipeliningDisable
)

// Placement is a node's final (queueIndex, position) assignment.
type Placement struct {
	NodeID     resdesc.NodeID
	QueueIndex int
	Position   int // index within this node's queue, 0-based
}

// Input bundles everything the scheduler needs.
type Input struct {
	Nodes         []ir.Node
	Subgraphs     []ir.Subgraph
	AccessRecords []ir.AccessRecord
	Resources     *resdesc.ResourceArena
	NumQueues     int
	// QueueClassPerIndex maps a configured queue index to the minimum
	// ir.QueueClass it satisfies (a graphics queue satisfies compute/copy
	// work too, so higher-capability indices are legal placements for
	// lower-class nodes).
	QueueClassPerIndex []ir.QueueClass
	Flags              Flags
	Seed               uint64 // used only when FlagRandomOrder is set
}

// Result is the scheduler's output: the live nodes in final order, each with
// its queue/position, plus the nodes DCE determined dead (for diagnostics).
type Result struct {
	Placements []Placement
	DeadNodes  []resdesc.NodeID
}

// Run executes the full scheduling pipeline (spec §4.4 steps 1-5).
func Run(in Input) Result {
	live := computeLive(in)
	order := topoOrder(in, live, pickFuncFor(in))
	placements, dead := assignQueues(in, order, live)
	return Result{Placements: placements, DeadNodes: dead}
}

func nodeByID(nodes []ir.Node, id resdesc.NodeID) (ir.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return ir.Node{}, false
}

func subgraphByID(subgraphs []ir.Subgraph, id resdesc.SubgraphID) (ir.Subgraph, bool) {
	for _, s := range subgraphs {
		if s.ID == id {
			return s, true
		}
	}
	return ir.Subgraph{}, false
}
