package barrier

import (
	"testing"

	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

var nodeIDArena = resdesc.NewNodeArena[struct{}](64)

func testNodeID() resdesc.NodeID { return nodeIDArena.Insert(struct{}{}) }

func fullRange() resdesc.SubresourceRange {
	return resdesc.SubresourceRange{MipCount: 1, ArrayCount: 1, AspectMask: access.AspectMask(access.AspectColor)}
}

// TestBuild_EmitsTransitionOnIncompatibleAccess verifies a write followed by
// a read on the same subresource emits exactly one transition, carrying the
// prior and new access.
func TestBuild_EmitsTransitionOnIncompatibleAccess(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D}})

	writer := testNodeID()
	reader := testNodeID()

	in := Input{
		Placements: []schedule.Placement{
			{NodeID: writer, QueueIndex: 0, Position: 0},
			{NodeID: reader, QueueIndex: 0, Position: 1},
		},
		Nodes: []ir.Node{
			{ID: writer, QueueClass: ir.QueueClassGraphics},
			{ID: reader, QueueClass: ir.QueueClassGraphics},
		},
		AccessRecords: []ir.AccessRecord{
			{Node: writer, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagRenderTarget}},
			{Node: reader, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagShaderRead}},
		},
		Resources: arena,
	}

	result := Build(in)
	if len(result.Transitions) != 2 {
		t.Fatalf("Transitions = %d, want 2 (undefined->RenderTarget, RenderTarget->ShaderRead)", len(result.Transitions))
	}
	last := result.Transitions[1]
	if last.Before.Flags != access.FlagRenderTarget || last.After.Flags != access.FlagShaderRead {
		t.Errorf("second transition = %+v, want Before=RenderTarget After=ShaderRead", last)
	}
}

// TestBuild_CompatibleReadsDoNotTransition verifies two read-only accesses
// to the same subresource never emit a transition between them.
func TestBuild_CompatibleReadsDoNotTransition(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D}})

	a := testNodeID()
	b := testNodeID()

	in := Input{
		Placements: []schedule.Placement{
			{NodeID: a, QueueIndex: 0, Position: 0},
			{NodeID: b, QueueIndex: 0, Position: 1},
		},
		Nodes: []ir.Node{{ID: a}, {ID: b}},
		AccessRecords: []ir.AccessRecord{
			{Node: a, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagShaderRead}},
			{Node: b, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagShaderRead}},
		},
		Resources: arena,
	}

	result := Build(in)
	if len(result.Transitions) != 1 {
		t.Fatalf("Transitions = %d, want 1 (only the initial undefined->ShaderRead)", len(result.Transitions))
	}
}

// TestBuild_FullOverwriteDiscards verifies a write covering the resource's
// entire subresource range is marked DiscardData.
func TestBuild_FullOverwriteDiscards(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D, MipLevels: 1, DepthOrArraySize: 1}})

	n := testNodeID()
	in := Input{
		Placements:    []schedule.Placement{{NodeID: n, QueueIndex: 0, Position: 0}},
		Nodes:         []ir.Node{{ID: n}},
		AccessRecords: []ir.AccessRecord{{Node: n, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagRenderTarget}}},
		Resources:     arena,
	}
	result := Build(in)
	if len(result.Transitions) != 1 || !result.Transitions[0].DiscardData {
		t.Fatalf("expected a single discard-marked transition, got %+v", result.Transitions)
	}
}

// TestBuild_CrossQueueReadStartsNewBatch verifies a node on queue B reading
// a resource last written on queue A splits the batch on queue B.
func TestBuild_CrossQueueReadStartsNewBatch(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindBuffer}})

	writer := testNodeID()
	readerSameQueue := testNodeID()
	readerOtherQueue := testNodeID()

	in := Input{
		Placements: []schedule.Placement{
			{NodeID: writer, QueueIndex: 0, Position: 0},
			{NodeID: readerSameQueue, QueueIndex: 0, Position: 1},
			{NodeID: readerOtherQueue, QueueIndex: 1, Position: 0},
		},
		Nodes: []ir.Node{{ID: writer}, {ID: readerSameQueue}, {ID: readerOtherQueue}},
		AccessRecords: []ir.AccessRecord{
			{Node: writer, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagCopyDst}},
			{Node: readerSameQueue, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagCopySrc}},
			{Node: readerOtherQueue, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagShaderRead}},
		},
		Resources: arena,
	}

	result := Build(in)
	var queue1Batches int
	for _, batch := range result.Batches {
		if batch.QueueIndex == 1 {
			queue1Batches++
		}
	}
	if queue1Batches != 1 {
		t.Fatalf("queue 1 batch count = %d, want 1", queue1Batches)
	}
	var queue0Batches int
	for _, batch := range result.Batches {
		if batch.QueueIndex == 0 {
			queue0Batches++
			if batch.NumCmds != 2 {
				t.Errorf("queue 0 batch NumCmds = %d, want 2 (writer+same-queue reader stay together)", batch.NumCmds)
			}
		}
	}
	if queue0Batches != 1 {
		t.Fatalf("queue 0 batch count = %d, want 1", queue0Batches)
	}
}

// TestBuild_RenderPassBeginEnd verifies a render-target write opens a pass
// and a subsequent non-attachment node closes it.
func TestBuild_RenderPassBeginEnd(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{Desc: resdesc.ResourceDesc{Kind: resdesc.KindImage2D}})

	draw := testNodeID()
	cp := testNodeID()

	in := Input{
		Placements: []schedule.Placement{
			{NodeID: draw, QueueIndex: 0, Position: 0},
			{NodeID: cp, QueueIndex: 0, Position: 1},
		},
		Nodes: []ir.Node{{ID: draw}, {ID: cp}},
		AccessRecords: []ir.AccessRecord{
			{Node: draw, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagRenderTarget}},
			{Node: cp, Resource: rid, SubresourceRange: fullRange(), Access: access.Access{Flags: access.FlagCopySrc}},
		},
		Resources: arena,
	}

	result := Build(in)
	if len(result.PassEvents) != 2 {
		t.Fatalf("PassEvents = %d, want 2 (Begin at draw, End at copy)", len(result.PassEvents))
	}
	if result.PassEvents[0].Action != PassBegin || result.PassEvents[1].Action != PassEnd {
		t.Errorf("PassEvents = %+v, want [Begin, End]", result.PassEvents)
	}
}
