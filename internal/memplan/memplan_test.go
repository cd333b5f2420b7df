package memplan

import (
	"testing"

	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

var nodeIDArena = resdesc.NewNodeArena[struct{}](16)

func testNodeID() resdesc.NodeID { return nodeIDArena.Insert(struct{}{}) }

// TestPlan_DisjointLifetimesShareAHeapSlot verifies two same-heap-type
// resources with non-overlapping schedule positions are aliased into one
// group at the same offset.
func TestPlan_DisjointLifetimesShareAHeapSlot(t *testing.T) {
	arena := resdesc.NewResourceArena(2)
	a := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 1024}})
	b := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 1024}})

	nA, nB := testNodeID(), testNodeID()
	in := Input{
		Placements: []schedule.Placement{
			{NodeID: nA, Position: 0},
			{NodeID: nB, Position: 1},
		},
		AccessRecords: []ir.AccessRecord{
			{Node: nA, Resource: a},
			{Node: nB, Resource: b},
		},
		Resources: arena,
	}

	result := Plan(in)
	if len(result.Groups) != 1 {
		t.Fatalf("Groups = %d, want 1 (disjoint lifetimes, same heap type, should share a slot)", len(result.Groups))
	}
	if len(result.Placements) != 2 {
		t.Fatalf("Placements = %d, want 2", len(result.Placements))
	}
	for _, p := range result.Placements {
		if p.Offset != 0 {
			t.Errorf("resource %v offset = %d, want 0 (shared slot members always start at the group's base)", p.Resource, p.Offset)
		}
	}
}

// TestPlan_OverlappingLifetimesGetSeparateGroups verifies two resources
// whose schedule positions overlap are never placed in the same group.
func TestPlan_OverlappingLifetimesGetSeparateGroups(t *testing.T) {
	arena := resdesc.NewResourceArena(2)
	a := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 1024}})
	b := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 1024}})

	nA, nB, nC := testNodeID(), testNodeID(), testNodeID()
	in := Input{
		Placements: []schedule.Placement{
			{NodeID: nA, Position: 0},
			{NodeID: nB, Position: 1},
			{NodeID: nC, Position: 2},
		},
		AccessRecords: []ir.AccessRecord{
			{Node: nA, Resource: a},
			{Node: nB, Resource: a}, // a live across [0,1]
			{Node: nB, Resource: b},
			{Node: nC, Resource: b}, // b live across [1,2], overlapping a
		},
		Resources: arena,
	}

	result := Plan(in)
	if len(result.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2 (overlapping lifetimes can't share a slot)", len(result.Groups))
	}
}

// TestPlan_ExternalResourceNotPlaced verifies an external resource never
// appears in the plan even if it's accessed by a live node.
func TestPlan_ExternalResourceNotPlaced(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	ext := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D}, External: true})

	n := testNodeID()
	in := Input{
		Placements:    []schedule.Placement{{NodeID: n, Position: 0}},
		AccessRecords: []ir.AccessRecord{{Node: n, Resource: ext}},
		Resources:     arena,
	}

	result := Plan(in)
	if len(result.Placements) != 0 {
		t.Fatalf("Placements = %v, want none (external resources are not placed)", result.Placements)
	}
}

// TestPlan_PersistentResourceNotPlaced verifies a persistent resource is
// excluded from packing the same way an external one is.
func TestPlan_PersistentResourceNotPlaced(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	p := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D, Flags: resdesc.FlagPersistent}})

	n := testNodeID()
	in := Input{
		Placements:    []schedule.Placement{{NodeID: n, Position: 0}},
		AccessRecords: []ir.AccessRecord{{Node: n, Resource: p}},
		Resources:     arena,
	}

	result := Plan(in)
	if len(result.Placements) != 0 {
		t.Fatalf("Placements = %v, want none (persistent resources are not placed here)", result.Placements)
	}
}

// TestPlan_PreferDedicatedNeverShares verifies two FlagPreferDedicated
// resources, even with disjoint lifetimes and identical heap type, each get
// their own group rather than being aliased together.
func TestPlan_PreferDedicatedNeverShares(t *testing.T) {
	arena := resdesc.NewResourceArena(2)
	dedicatedFlags := resdesc.Flags(0) | resdesc.FlagPreferDedicated
	a := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 256, Flags: dedicatedFlags}})
	b := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 256, Flags: dedicatedFlags}})

	nA, nB := testNodeID(), testNodeID()
	in := Input{
		Placements: []schedule.Placement{
			{NodeID: nA, Position: 0},
			{NodeID: nB, Position: 1},
		},
		AccessRecords: []ir.AccessRecord{
			{Node: nA, Resource: a},
			{Node: nB, Resource: b},
		},
		Resources: arena,
	}

	result := Plan(in)
	if len(result.Groups) != 2 {
		t.Fatalf("Groups = %d, want 2 (FlagPreferDedicated resources never alias with another resource)", len(result.Groups))
	}
}

// TestPlan_GPULocalCPUVisibleGetsItsOwnHeapType verifies a resource flagged
// FlagPreferGPULocalCPUVisible is bucketed into HeapTypeGPULocalCPUVisible,
// separate from the default heap's resources.
func TestPlan_GPULocalCPUVisibleGetsItsOwnHeapType(t *testing.T) {
	arena := resdesc.NewResourceArena(2)
	normal := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 512}})
	visible := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 512, Flags: resdesc.FlagPreferGPULocalCPUVisible}})

	n1, n2 := testNodeID(), testNodeID()
	in := Input{
		Placements: []schedule.Placement{
			{NodeID: n1, Position: 0},
			{NodeID: n2, Position: 0},
		},
		AccessRecords: []ir.AccessRecord{
			{Node: n1, Resource: normal},
			{Node: n2, Resource: visible},
		},
		Resources: arena,
	}

	result := Plan(in)
	byResource := map[resdesc.ResourceID]HeapType{}
	for _, p := range result.Placements {
		byResource[p.Resource] = p.HeapType
	}
	if byResource[normal] != HeapTypeDefault {
		t.Errorf("normal buffer heap type = %v, want HeapTypeDefault", byResource[normal])
	}
	if byResource[visible] != HeapTypeGPULocalCPUVisible {
		t.Errorf("CPU-visible buffer heap type = %v, want HeapTypeGPULocalCPUVisible", byResource[visible])
	}
}

// TestPlan_AlignmentInflatesHeapSize verifies a non-trivial Alignment rounds
// each group's reserved size up rather than packing it exactly.
func TestPlan_AlignmentInflatesHeapSize(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	buf := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 100}})

	n := testNodeID()
	in := Input{
		Placements:    []schedule.Placement{{NodeID: n, Position: 0}},
		AccessRecords: []ir.AccessRecord{{Node: n, Resource: buf}},
		Resources:     arena,
		Alignment:     256,
	}

	result := Plan(in)
	if got := result.HeapSizes[HeapTypeDefault]; got != 256 {
		t.Errorf("HeapSizes[HeapTypeDefault] = %d, want 256 (100 rounded up to a 256-byte alignment)", got)
	}
}

// TestPlan_DeadNodeAccessIgnored verifies a resource only touched by a node
// absent from Placements (i.e. eliminated by scheduling) is not placed.
func TestPlan_DeadNodeAccessIgnored(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	r := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer, Width: 64}})

	deadNode := testNodeID()
	in := Input{
		Placements:    nil,
		AccessRecords: []ir.AccessRecord{{Node: deadNode, Resource: r}},
		Resources:     arena,
	}

	result := Plan(in)
	if len(result.Placements) != 0 {
		t.Fatalf("Placements = %v, want none (sole accessor was eliminated by scheduling)", result.Placements)
	}
}
