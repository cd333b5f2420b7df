package diagfeed

import (
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

// Flags selects which build phases get a textual dump (spec §4.10:
// "diagnosticFlags can request a textual dump of the graph at three
// phases: post-build (DAG), pre-schedule, post-schedule").
type Flags uint32

const (
	DumpPostBuild Flags = 1 << iota
	DumpPreSchedule
	DumpPostSchedule
)

// Printer receives one formatted diagnostic line at a time, exactly the
// way spec §4.10 describes: "routed through a printer(context, fmt, args)
// callback so the host owns output buffering." A nil Printer silences every
// dump regardless of Flags.
type Printer func(ctx any, format string, args ...any)

// Dumper drives the three dump points the orchestrator's callers invoke at
// their respective build phases.
type Dumper struct {
	Flags   Flags
	Printer Printer
	Context any
}

func (d Dumper) emit(format string, args ...any) {
	if d.Printer == nil {
		return
	}
	d.Printer(d.Context, format, args...)
}

// DumpPostBuild prints the graph's node list and access records right
// after ir.Builder finishes, before any scheduling runs.
func (d Dumper) DumpPostBuild(nodes []ir.Node, accessRecords []ir.AccessRecord) {
	if d.Flags&DumpPostBuild == 0 {
		return
	}
	d.emit("post-build DAG: %d nodes, %d access records", len(nodes), len(accessRecords))
	for _, n := range nodes {
		d.emit("  node %v %q queueClass=%d programIndex=%d subgraph=%v", n.ID, n.Name, n.QueueClass, n.ProgramIndex, n.Subgraph)
	}
	for _, a := range accessRecords {
		d.emit("  access node=%v resource=%v flags=%d", a.Node, a.Resource, a.Access.Flags)
	}
}

// DumpPreSchedule prints the node set as it enters the scheduler, before
// dead-code elimination or ordering have run.
func (d Dumper) DumpPreSchedule(nodes []ir.Node) {
	if d.Flags&DumpPreSchedule == 0 {
		return
	}
	d.emit("pre-schedule: %d candidate nodes", len(nodes))
	for _, n := range nodes {
		d.emit("  candidate %v %q", n.ID, n.Name)
	}
}

// DumpPostSchedule prints the final placement order, dead-node list, and
// queue assignment produced by schedule.Run.
func (d Dumper) DumpPostSchedule(result schedule.Result) {
	if d.Flags&DumpPostSchedule == 0 {
		return
	}
	d.emit("post-schedule: %d placements, %d dead nodes", len(result.Placements), len(result.DeadNodes))
	for _, p := range result.Placements {
		d.emit("  placement pos=%d queue=%d node=%v", p.Position, p.QueueIndex, p.NodeID)
	}
	for _, dead := range result.DeadNodes {
		d.emit("  eliminated node=%v", dead)
	}
}
