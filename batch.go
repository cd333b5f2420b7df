package rpsgraph

import (
	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/orchestrator"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

// NoSignalFence is the external BatchLayout sentinel (spec §6:
// "signalFenceIndex == 0xFFFFFFFF means no signal").
const NoSignalFence uint32 = 0xFFFFFFFF

// CmdBatch is one entry of BatchLayout.CmdBatches (spec §6's bit-exact
// batch-layout record).
type CmdBatch struct {
	QueueIndex       uint32
	CmdBegin         uint32
	NumCmds          uint32
	WaitFencesBegin  uint32
	NumWaitFences    uint32
	SignalFenceIndex uint32
}

// BatchLayout is the bit-exact external interface spec §6 names: the ordered
// list of per-queue command ranges, fence waits, and signals a caller drives
// Record against, one RecordCommands call per CmdBatches entry.
type BatchLayout struct {
	NumCmdBatches    uint32
	CmdBatches       []CmdBatch
	NumFenceSignals  uint32
	WaitFenceIndices []uint32 // flat, indexed by cmdBatch.WaitFencesBegin + i
}

// GetBatchLayout returns the layout produced by the most recent successful
// Update (spec §6 "renderGraphGetBatchLayout(graph, out layout) → ok").
func (g *RenderGraph) GetBatchLayout() BatchLayout {
	layout := BatchLayout{
		NumCmdBatches:   uint32(len(g.fp.Batches)),
		CmdBatches:      make([]CmdBatch, len(g.fp.Batches)),
		NumFenceSignals: uint32(len(g.fp.Slots)),
	}
	for i, b := range g.fp.Batches {
		signal := NoSignalFence
		if b.SignalFenceIndex != barrier.NoSignalFence {
			signal = uint32(b.SignalFenceIndex)
		}
		layout.CmdBatches[i] = CmdBatch{
			QueueIndex:       uint32(b.QueueIndex),
			CmdBegin:         uint32(b.CmdBegin),
			NumCmds:          uint32(b.NumCmds),
			WaitFencesBegin:  uint32(b.WaitFencesBegin),
			NumWaitFences:    uint32(b.NumWaitFences),
			SignalFenceIndex: signal,
		}
	}
	// fenceplan.Result.Waits is already grouped contiguously per consumer
	// batch at construction, matching each batch's WaitFencesBegin/
	// NumWaitFences, so this flattens straight across.
	layout.WaitFenceIndices = make([]uint32, len(g.fp.Waits))
	for i, w := range g.fp.Waits {
		layout.WaitFenceIndices[i] = uint32(w.Slot)
	}
	return layout
}

// buildBatchInput scopes one CommandBatch's orchestrator.Input: the node
// list in that batch's own per-queue position order starting at local
// index 0, and the subset of transitions/pass events that fall within it,
// remapped from the barrier stage's global (cross-queue) position space
// into that local 0-based range.
//
// internal/barrier.Build numbers Transition.AtPosition and PassEvent.Position
// by the index of the node's schedule.Placement within the global placement
// slice, while CommandBatch.CmdBegin/NumCmds are expressed in that batch's
// queue-local position space (schedule.Placement.Position) — two different
// numberings over the same schedule. This is where that translation happens,
// so internal/orchestrator can stay a simple contiguous-range recorder.
func buildBatchInput(
	batch barrier.CommandBatch,
	placements []schedule.Placement,
	nodesByID map[resdesc.NodeID]ir.Node,
	br barrier.Result,
	resources *resdesc.ResourceArena,
	handles map[ResourceID]any,
	hook hal.Hook,
	frameIndex uint64,
) orchestrator.Input {
	end := batch.CmdBegin + batch.NumCmds
	inRange := func(queueIndex, position int) bool {
		return queueIndex == batch.QueueIndex && position >= batch.CmdBegin && position < end
	}

	var nodes []ir.Node
	globalToLocal := make(map[int]int, batch.NumCmds)
	for i, p := range placements {
		if !inRange(p.QueueIndex, p.Position) {
			continue
		}
		globalToLocal[i] = len(nodes)
		nodes = append(nodes, nodesByID[p.NodeID])
	}

	var transitions []barrier.Transition
	for _, t := range br.Transitions {
		local, ok := globalToLocal[t.AtPosition]
		if !ok {
			continue
		}
		t.AtPosition = local
		transitions = append(transitions, t)
	}

	var passEvents []barrier.PassEvent
	for _, e := range br.PassEvents {
		local, ok := globalToLocal[e.Position]
		if !ok {
			continue
		}
		e.Position = local
		passEvents = append(passEvents, e)
	}

	return orchestrator.Input{
		Nodes:     nodes,
		Resources: resources,
		Handles:   handles,
		Barrier: barrier.Result{
			Transitions: transitions,
			PassEvents:  passEvents,
		},
		Hook:       hook,
		FrameIndex: frameIndex,
	}
}
