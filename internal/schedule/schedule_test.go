package schedule

import (
	"testing"

	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// nodeIDArena/subgraphIDArena mint stable ids for test fixtures. NodeID and
// SubgraphID's marker types are unexported, so ids can only be minted
// through an arena — the same constraint production code lives with —
// rather than constructed directly.
var nodeIDArena = resdesc.NewNodeArena[struct{}](64)

func testNodeID() resdesc.NodeID {
	return nodeIDArena.Insert(struct{}{})
}

var subgraphIDArena = resdesc.NewSubgraphArena[struct{}](8)

func testSubgraphID() resdesc.SubgraphID {
	return subgraphIDArena.Insert(struct{}{})
}

// newResourceArena inserts each desc into a fresh arena and returns the
// arena alongside the ResourceID each entry was actually assigned, so tests
// reference the same ids the scheduler's Input.Resources arena holds.
func newResourceArena(descs ...resdesc.ResourceDesc) (*resdesc.ResourceArena, []resdesc.ResourceID) {
	a := resdesc.NewResourceArena(len(descs) + 1)
	ids := make([]resdesc.ResourceID, len(descs))
	for i, d := range descs {
		ids[i] = a.Insert(resdesc.Resource{Desc: d})
	}
	return a, ids
}

func fullRange() resdesc.SubresourceRange {
	return resdesc.SubresourceRange{MipCount: 1, ArrayCount: 1, AspectMask: access.AspectMask(access.AspectColor)}
}

// TestRun_DeadCodeElimination verifies a pure node whose sole write is never
// read and targets a non-persistent, non-external resource gets dropped.
func TestRun_DeadCodeElimination(t *testing.T) {
	arena, ids := newResourceArena(resdesc.ResourceDesc{Kind: resdesc.KindImage2D})

	nA := ir.Node{ID: testNodeID(), Name: "deadWriter", QueueClass: ir.QueueClassGraphics, Flags: ir.NodeFlagPure, ProgramIndex: 0}
	nB := ir.Node{ID: testNodeID(), Name: "liveWriter", QueueClass: ir.QueueClassGraphics, ProgramIndex: 1}

	recs := []ir.AccessRecord{
		{Node: nA.ID, ProgramIndex: 0, Resource: ids[0], SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagClear}},
	}

	in := Input{
		Nodes:         []ir.Node{nA, nB},
		AccessRecords: recs,
		Resources:     arena,
		NumQueues:     1,
	}

	result := Run(in)
	if len(result.DeadNodes) != 1 || result.DeadNodes[0] != nA.ID {
		t.Fatalf("DeadNodes = %v, want [%v] (unread write to transient resource)", result.DeadNodes, nA.ID)
	}
	foundB := false
	for _, p := range result.Placements {
		if p.NodeID == nA.ID {
			t.Errorf("dead node %v present in placements", nA.ID)
		}
		if p.NodeID == nB.ID {
			foundB = true
		}
	}
	if !foundB {
		t.Error("live node B missing from placements")
	}
}

// TestRun_DeadCodeElimination_PersistentWriteKept verifies a write to a
// persistent resource survives DCE even with no reader.
func TestRun_DeadCodeElimination_PersistentWriteKept(t *testing.T) {
	arena, ids := newResourceArena(resdesc.ResourceDesc{Kind: resdesc.KindImage2D, Flags: resdesc.FlagPersistent})

	n := ir.Node{ID: testNodeID(), Name: "persistWriter", QueueClass: ir.QueueClassGraphics, ProgramIndex: 0}
	recs := []ir.AccessRecord{
		{Node: n.ID, ProgramIndex: 0, Resource: ids[0], SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagRenderTarget}},
	}
	in := Input{Nodes: []ir.Node{n}, AccessRecords: recs, Resources: arena, NumQueues: 1}

	result := Run(in)
	if len(result.DeadNodes) != 0 {
		t.Fatalf("DeadNodes = %v, want none (write targets a persistent resource)", result.DeadNodes)
	}
}

// TestRun_TopoOrder_WriteThenRead verifies a reader is scheduled after its
// writer even when Input.Nodes lists the reader first.
func TestRun_TopoOrder_WriteThenRead(t *testing.T) {
	arena, ids := newResourceArena(resdesc.ResourceDesc{Kind: resdesc.KindImage2D, Flags: resdesc.FlagPersistent})

	writer := ir.Node{ID: testNodeID(), Name: "writer", QueueClass: ir.QueueClassGraphics, ProgramIndex: 0}
	reader := ir.Node{ID: testNodeID(), Name: "reader", QueueClass: ir.QueueClassGraphics, ProgramIndex: 1}

	recs := []ir.AccessRecord{
		{Node: writer.ID, ProgramIndex: 0, Resource: ids[0], SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagRenderTarget}},
		{Node: reader.ID, ProgramIndex: 1, Resource: ids[0], SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagShaderRead}},
	}

	in := Input{Nodes: []ir.Node{reader, writer}, AccessRecords: recs, Resources: arena, NumQueues: 1}
	result := Run(in)

	pos := map[resdesc.NodeID]int{}
	for _, p := range result.Placements {
		pos[p.NodeID] = p.Position
	}
	if pos[writer.ID] >= pos[reader.ID] {
		t.Errorf("writer position %d not before reader position %d", pos[writer.ID], pos[reader.ID])
	}
}

// TestRun_QueueAssignment_MinimumClass verifies a compute-only node never
// lands on a queue whose configured class is less capable than compute.
func TestRun_QueueAssignment_MinimumClass(t *testing.T) {
	arena, _ := newResourceArena()
	n := ir.Node{ID: testNodeID(), Name: "compute", QueueClass: ir.QueueClassCompute, ProgramIndex: 0}

	in := Input{
		Nodes:              []ir.Node{n},
		Resources:          arena,
		NumQueues:          2,
		QueueClassPerIndex: []ir.QueueClass{ir.QueueClassGraphics, ir.QueueClassCopy},
	}
	result := Run(in)
	if len(result.Placements) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(result.Placements))
	}
	if result.Placements[0].QueueIndex != 0 {
		t.Errorf("QueueIndex = %d, want 0 (the only queue class-capable of compute)", result.Placements[0].QueueIndex)
	}
}

// TestRun_QueueAssignment_AsyncHintSecondary verifies an async-hinted node
// with a class-satisfying secondary queue available is placed off the
// primary queue.
func TestRun_QueueAssignment_AsyncHintSecondary(t *testing.T) {
	arena, _ := newResourceArena()
	n := ir.Node{ID: testNodeID(), Name: "asyncCompute", QueueClass: ir.QueueClassCompute, Flags: ir.NodeFlagAsyncHint, ProgramIndex: 0}

	in := Input{
		Nodes:              []ir.Node{n},
		Resources:          arena,
		NumQueues:          2,
		QueueClassPerIndex: []ir.QueueClass{ir.QueueClassGraphics, ir.QueueClassGraphics},
	}
	result := Run(in)
	if result.Placements[0].QueueIndex != 1 {
		t.Errorf("QueueIndex = %d, want 1 (async hint should prefer the secondary queue)", result.Placements[0].QueueIndex)
	}
}

// TestRun_QueueAssignment_PipeliningDisableIgnoresHint verifies
// FlagWorkloadTypePipeliningDisable forces every node onto its primary
// queue even when async-hinted.
func TestRun_QueueAssignment_PipeliningDisableIgnoresHint(t *testing.T) {
	arena, _ := newResourceArena()
	n := ir.Node{ID: testNodeID(), Name: "asyncCompute", QueueClass: ir.QueueClassGraphics, Flags: ir.NodeFlagAsyncHint, ProgramIndex: 0}

	in := Input{
		Nodes:              []ir.Node{n},
		Resources:          arena,
		NumQueues:          2,
		QueueClassPerIndex: []ir.QueueClass{ir.QueueClassGraphics, ir.QueueClassGraphics},
		Flags:              FlagWorkloadTypePipeliningDisable,
	}
	result := Run(in)
	if result.Placements[0].QueueIndex != 0 {
		t.Errorf("QueueIndex = %d, want 0 (pipelining disabled should ignore the async hint)", result.Placements[0].QueueIndex)
	}
}

// TestRun_RandomOrder_Deterministic verifies the same seed produces the
// same schedule across independent runs.
func TestRun_RandomOrder_Deterministic(t *testing.T) {
	arena, _ := newResourceArena()
	nodes := make([]ir.Node, 6)
	for i := range nodes {
		nodes[i] = ir.Node{ID: testNodeID(), Name: "n", QueueClass: ir.QueueClassGraphics, ProgramIndex: i}
	}
	in := Input{Nodes: nodes, Resources: arena, NumQueues: 1, Flags: FlagRandomOrder, Seed: 42}

	r1 := Run(in)
	r2 := Run(in)
	if len(r1.Placements) != len(r2.Placements) {
		t.Fatalf("mismatched placement counts: %d vs %d", len(r1.Placements), len(r2.Placements))
	}
	for i := range r1.Placements {
		if r1.Placements[i].NodeID != r2.Placements[i].NodeID {
			t.Fatalf("position %d diverged between runs with the same seed: %v vs %v", i, r1.Placements[i].NodeID, r2.Placements[i].NodeID)
		}
	}
}

// TestRun_SequentialSubgraph_PreservesMemberOrder verifies a sequential
// subgraph's members keep their relative program order even though no data
// dependency links them.
func TestRun_SequentialSubgraph_PreservesMemberOrder(t *testing.T) {
	arena, _ := newResourceArena()
	sg := ir.Subgraph{ID: testSubgraphID(), Flags: ir.SubgraphFlagSequential}
	a := ir.Node{ID: testNodeID(), Name: "a", QueueClass: ir.QueueClassGraphics, ProgramIndex: 0, Subgraph: sg.ID}
	b := ir.Node{ID: testNodeID(), Name: "b", QueueClass: ir.QueueClassGraphics, ProgramIndex: 1, Subgraph: sg.ID}

	in := Input{
		Nodes:     []ir.Node{b, a}, // deliberately out of program order
		Subgraphs: []ir.Subgraph{sg},
		Resources: arena,
		NumQueues: 1,
	}
	result := Run(in)
	pos := map[resdesc.NodeID]int{}
	for _, p := range result.Placements {
		pos[p.NodeID] = p.Position
	}
	if pos[a.ID] >= pos[b.ID] {
		t.Errorf("sequential subgraph member order violated: a at %d, b at %d", pos[a.ID], pos[b.ID])
	}
}
