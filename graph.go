package rpsgraph

import (
	"sync"

	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/diagfeed"
	"github.com/gogpu/rpsgraph/internal/fenceplan"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/memplan"
	"github.com/gogpu/rpsgraph/internal/orchestrator"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
	"github.com/gogpu/rpsgraph/internal/schedule"
	"github.com/gogpu/rpsgraph/internal/sig"
)

// Builder and ArgSet are the two handles the front-end's entry callback
// receives each update (spec §4.2's addNode/allocateData/getParamResourceId
// surface, and spec §4.1's bound argument set).
type (
	Builder = ir.Builder
	ArgSet  = sig.ArgSet
)

// EntryCallback is the front-end-supplied callback that, invoked once per
// update with the build's Builder and bound arguments, appends nodes and
// subgraphs (spec §1: "a callback that, when invoked with argument values,
// appends nodes and subgraphs to a builder").
type EntryCallback func(b *Builder, args *ArgSet) error

// EntryPoint is a graph's main entry: the signature the caller marshals
// arguments against, plus the callback that builds the graph IR from them.
type EntryPoint struct {
	Signature Signature
	Callback  EntryCallback
}

// ScheduleInfo configures the scheduler's queue topology.
type ScheduleInfo struct {
	NumQueues          int
	QueueClassPerIndex []QueueClass
}

// GraphCreateInfo configures renderGraphCreate.
type GraphCreateInfo struct {
	MainEntry    EntryPoint
	ScheduleInfo ScheduleInfo
	// Flags are the default schedule.Flags, used by any Update call whose
	// UpdateInfo.ScheduleFlags is 0 (0 means KeepProgramOrder with every
	// scheduler feature enabled).
	Flags schedule.Flags
	// Alignment is the backend's placement alignment in bytes, passed to
	// the memory planner (spec §4.7). 0 means no alignment requirement.
	Alignment uint64
}

// UpdateInfo is one update's inputs (spec §4.1's update contract).
type UpdateInfo struct {
	FrameIndex          uint64
	CompletedFrameIndex uint64
	Args                []any
	Resources           []View
	ScheduleFlags       schedule.Flags
	DiagnosticFlags     diagfeed.Flags
	Seed                uint64
}

// RecordInfo identifies which batch to record and onto what command
// buffer (spec §4.8's recordCommands).
type RecordInfo struct {
	BatchIndex        int
	CmdBuffer         any
	UserRecordContext any
	Flags             orchestrator.RecordFlags
}

// RenderGraph is one entry's compiled, schedulable graph (spec §2's "fresh
// or reused graph IR" produced each update, after the lifetime/scheduler/
// memory/barrier/fence stages run in sequence).
type RenderGraph struct {
	device *Device
	entry  EntryPoint

	numQueues          int
	queueClassPerIndex []QueueClass
	defaultFlags       schedule.Flags
	alignment          uint64

	dumper diagfeed.Dumper

	mu       sync.Mutex
	updating bool
	released bool

	nodes     []ir.Node
	resources *resdesc.ResourceArena
	sched     schedule.Result
	br        barrier.Result
	fp        fenceplan.Result
	mem       memplan.Result

	handles map[ResourceID]any
	// realizedByName caches realized handles for persistent resources by
	// debug name, across updates, since the builder's arenas (and thus
	// ResourceID identity) reset every update (spec §3 Lifecycles). This is
	// the Open Question decision recorded in DESIGN.md: persistent-resource
	// identity survives a rebuild only as far as the front-end gives it a
	// stable debug name.
	realizedByName map[string]any

	batchOrchestrators []*orchestrator.Orchestrator
}

// RenderGraphCreate builds a RenderGraph against device for one entry point
// (spec §6 "renderGraphCreate(device, {...}) → graph | error").
func RenderGraphCreate(device *Device, info GraphCreateInfo) (*RenderGraph, error) {
	if device == nil || device.released {
		return nil, ErrReleased
	}
	if info.MainEntry.Callback == nil {
		return nil, rpserr.New(rpserr.InvalidArguments, "RenderGraphCreate", "MainEntry.Callback is required")
	}
	numQueues := info.ScheduleInfo.NumQueues
	if numQueues < 1 {
		numQueues = 1
	}
	return &RenderGraph{
		device:             device,
		entry:              info.MainEntry,
		numQueues:          numQueues,
		queueClassPerIndex: info.ScheduleInfo.QueueClassPerIndex,
		defaultFlags:       info.Flags,
		alignment:          info.Alignment,
		dumper:             diagfeed.Dumper{Printer: device.printer},
		handles:            make(map[ResourceID]any),
		realizedByName:     make(map[string]any),
	}, nil
}

// Update re-invokes the entry callback and re-runs the full lifetime,
// scheduling, barrier, fence, and memory-planning pipeline (spec §6
// "renderGraphUpdate(graph, updateInfo) → ok | error"). A prior schedule
// remains intact if Update returns an error (spec §7).
func (g *RenderGraph) Update(info UpdateInfo) error {
	if g.released {
		return ErrReleased
	}
	g.mu.Lock()
	if g.updating {
		g.mu.Unlock()
		return rpserr.New(rpserr.InvalidArguments, "RenderGraph.Update", "update is not reentrant")
	}
	g.updating = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.updating = false
		g.mu.Unlock()
	}()

	scheduleFlags := info.ScheduleFlags
	if scheduleFlags == 0 {
		scheduleFlags = g.defaultFlags
	}
	g.dumper.Flags = info.DiagnosticFlags

	builder := ir.NewBuilder()
	argSet := sig.NewArgSet(g.entry.Signature)
	if err := argSet.Bind(info.Args, info.Resources); err != nil {
		return err
	}
	if err := g.entry.Callback(builder, argSet); err != nil {
		return err
	}
	if err := builder.Err(); err != nil {
		return err
	}

	nodes := builder.Nodes()
	subgraphs := builder.Subgraphs()
	accessRecords := builder.AccessRecords()
	resources := builder.Resources()

	g.dumper.DumpPostBuild(nodes, accessRecords)
	g.dumper.DumpPreSchedule(nodes)

	sched := schedule.Run(schedule.Input{
		Nodes:              nodes,
		Subgraphs:          subgraphs,
		AccessRecords:      accessRecords,
		Resources:          resources,
		NumQueues:          g.numQueues,
		QueueClassPerIndex: g.queueClassPerIndex,
		Flags:              scheduleFlags,
		Seed:               info.Seed,
	})
	g.dumper.DumpPostSchedule(sched)

	br := barrier.Build(barrier.Input{
		Placements:    sched.Placements,
		Nodes:         nodes,
		AccessRecords: accessRecords,
		Resources:     resources,
	})
	fp := fenceplan.Plan(br)
	mem := memplan.Plan(memplan.Input{
		Placements:    sched.Placements,
		AccessRecords: accessRecords,
		Resources:     resources,
		Alignment:     g.alignment,
	})

	handles, err := g.realizeResources(resources, mem)
	if err != nil {
		return err
	}

	byID := make(map[resdesc.NodeID]ir.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	batchOrchestrators := make([]*orchestrator.Orchestrator, len(fp.Batches))
	for i, batch := range fp.Batches {
		in := buildBatchInput(batch, sched.Placements, byID, br, resources, handles, g.device.hook, info.FrameIndex)
		batchOrchestrators[i] = orchestrator.New(in)
	}

	g.nodes = nodes
	g.resources = resources
	g.sched = sched
	g.br = br
	g.fp = fp
	g.mem = mem
	g.handles = handles
	g.batchOrchestrators = batchOrchestrators
	return nil
}

// realizeResources calls the backend hook's RealizeResource for every
// placement the memory planner produced this update and for every persistent
// resource (which the planner never places, so it is passed a zero-offset
// default-heap Placement), reusing a persistent resource's previously
// realized handle (keyed by debug name) rather than reallocating it, and binds every external resource straight to its
// caller-supplied handle without calling the hook at all (spec §3: "External
// resources are referenced by handle only").
func (g *RenderGraph) realizeResources(resources *resdesc.ResourceArena, mem memplan.Result) (map[ResourceID]any, error) {
	placementByResource := make(map[ResourceID]memplan.Placement, len(mem.Placements))
	for _, p := range mem.Placements {
		placementByResource[p.Resource] = p
	}

	handles := make(map[ResourceID]any)
	resources.ForEach(func(rid resdesc.ResourceID, r resdesc.Resource) bool {
		switch {
		case r.External:
			handles[rid] = r.ExternalHandle
		case r.Desc.IsPersistent():
			if h, ok := g.realizedByName[r.DebugName]; ok {
				handles[rid] = h
				return true
			}
			p, ok := placementByResource[rid]
			if !ok {
				p = memplan.Placement{Resource: rid}
			}
			h, err := g.device.hook.RealizeResource(g.device.hook.UserContext, rid, r.Desc, p)
			if err != nil {
				return true
			}
			handles[rid] = h
			g.realizedByName[r.DebugName] = h
		default:
			p, ok := placementByResource[rid]
			if !ok {
				return true
			}
			h, err := g.device.hook.RealizeResource(g.device.hook.UserContext, rid, r.Desc, p)
			if err != nil {
				return true
			}
			handles[rid] = h
		}
		return true
	})
	return handles, nil
}

// RecordCommands dispatches one batch's node range onto cmdBuffer (spec §6
// "renderGraphRecordCommands(graph, recordInfo) → ok | error"). Record-phase
// errors are returned to the caller; per spec §7 the backend may have
// partially recorded commands and the caller is expected to discard the
// buffer.
func (g *RenderGraph) RecordCommands(info RecordInfo) error {
	if g.released {
		return ErrReleased
	}
	if info.BatchIndex < 0 || info.BatchIndex >= len(g.batchOrchestrators) {
		return rpserr.Newf(rpserr.IndexOutOfBounds, "RenderGraph.RecordCommands",
			"batch index %d out of range [0,%d)", info.BatchIndex, len(g.batchOrchestrators))
	}
	o := g.batchOrchestrators[info.BatchIndex]
	numCmds := g.fp.Batches[info.BatchIndex].NumCmds
	return o.RecordRange(info.CmdBuffer, info.UserRecordContext, 0, numCmds, info.Flags)
}

// Release marks the graph as no longer usable.
func (g *RenderGraph) Release() {
	g.released = true
}

