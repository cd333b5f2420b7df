package diagfeed

import (
	"encoding/json"
	"io"

	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/fenceplan"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

// VisualizerFrame is the JSON-serializable snapshot of one update's
// scheduling result, feeding an external visualizer tool the same way the
// spec's diagnostic dumps feed a text console.
type VisualizerFrame struct {
	Nodes       []VisNode       `json:"nodes"`
	Placements  []VisPlacement  `json:"placements"`
	DeadNodes   []string        `json:"deadNodes"`
	Transitions []VisTransition `json:"transitions"`
	Batches     []VisBatch      `json:"batches"`
	FenceSlots  []VisFenceSlot  `json:"fenceSlots"`
}

type VisNode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	QueueClass   int    `json:"queueClass"`
	ProgramIndex int    `json:"programIndex"`
}

type VisPlacement struct {
	NodeID     string `json:"nodeId"`
	QueueIndex int    `json:"queueIndex"`
	Position   int    `json:"position"`
}

type VisTransition struct {
	Resource    string `json:"resource"`
	BeforeFlags uint32 `json:"beforeFlags"`
	AfterFlags  uint32 `json:"afterFlags"`
	AtPosition  int    `json:"atPosition"`
	DiscardData bool   `json:"discardData"`
}

type VisBatch struct {
	QueueIndex       int `json:"queueIndex"`
	CmdBegin         int `json:"cmdBegin"`
	NumCmds          int `json:"numCmds"`
	WaitFencesBegin  int `json:"waitFencesBegin"`
	NumWaitFences    int `json:"numWaitFences"`
	SignalFenceIndex int `json:"signalFenceIndex"`
}

type VisFenceSlot struct {
	SignalingQueue int    `json:"signalingQueue"`
	Value          uint64 `json:"value"`
}

// BuildVisualizerFrame assembles one JSON-ready snapshot from the outputs
// of the scheduling, barrier, and fence-planning stages.
func BuildVisualizerFrame(nodes []ir.Node, sched schedule.Result, br barrier.Result, fp fenceplan.Result) VisualizerFrame {
	frame := VisualizerFrame{
		Nodes:      make([]VisNode, len(nodes)),
		Placements: make([]VisPlacement, len(sched.Placements)),
		DeadNodes:  make([]string, len(sched.DeadNodes)),
		FenceSlots: make([]VisFenceSlot, len(fp.Slots)),
	}
	for i, n := range nodes {
		frame.Nodes[i] = VisNode{ID: n.ID.String(), Name: n.Name, QueueClass: int(n.QueueClass), ProgramIndex: n.ProgramIndex}
	}
	for i, p := range sched.Placements {
		frame.Placements[i] = VisPlacement{NodeID: p.NodeID.String(), QueueIndex: p.QueueIndex, Position: p.Position}
	}
	for i, d := range sched.DeadNodes {
		frame.DeadNodes[i] = d.String()
	}
	for _, t := range br.Transitions {
		frame.Transitions = append(frame.Transitions, VisTransition{
			Resource:    t.Resource.String(),
			BeforeFlags: uint32(t.Before.Flags),
			AfterFlags:  uint32(t.After.Flags),
			AtPosition:  t.AtPosition,
			DiscardData: t.DiscardData,
		})
	}
	for _, b := range fp.Batches {
		frame.Batches = append(frame.Batches, VisBatch{
			QueueIndex:       b.QueueIndex,
			CmdBegin:         b.CmdBegin,
			NumCmds:          b.NumCmds,
			WaitFencesBegin:  b.WaitFencesBegin,
			NumWaitFences:    b.NumWaitFences,
			SignalFenceIndex: b.SignalFenceIndex,
		})
	}
	for i, s := range fp.Slots {
		frame.FenceSlots[i] = VisFenceSlot{SignalingQueue: s.SignalingQueue, Value: s.Value}
	}
	return frame
}

// EncodeVisualizerFrame writes frame to w as JSON.
func EncodeVisualizerFrame(w io.Writer, frame VisualizerFrame) error {
	enc := json.NewEncoder(w)
	return enc.Encode(frame)
}
