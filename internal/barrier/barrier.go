// Package barrier walks a finished schedule and synthesizes the transition
// records, render-pass begin/end/suspend/resume markers, and per-queue
// command batches the record orchestrator needs to actually emit native
// commands (spec §4.5).
package barrier

import (
	"sort"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

// NoSignalFence marks a CommandBatch with no downstream waiter (spec §6's
// NONE sentinel, applied to the fence-signal index before the fence planner
// fills in real slots).
const NoSignalFence = -1

// Transition is one access-state change on a subresource, recorded at the
// point in the schedule it must take effect. Defined in hal, not here, so
// an out-of-module backend can name it when implementing hal.Hook.
type Transition = hal.Transition

// PassAction enumerates the render-pass lifecycle events a queue's command
// stream can carry.
type PassAction uint8

const (
	PassNone PassAction = iota
	PassBegin
	PassEnd
	PassSuspend
	PassResume
)

// PassEvent marks a render-pass lifecycle transition on one queue.
type PassEvent struct {
	Position    int
	QueueIndex  int
	Action      PassAction
	Attachments []resdesc.ResourceID
}

// CommandBatch is a maximal run of consecutive same-queue nodes with no
// intervening cross-queue dependency (spec §4.5).
type CommandBatch struct {
	QueueIndex       int
	CmdBegin         int
	NumCmds          int
	WaitFencesBegin  int
	NumWaitFences    int
	SignalFenceIndex int
}

// Input bundles a finished schedule with the access data needed to replay
// it subresource by subresource.
type Input struct {
	Placements    []schedule.Placement // in global (cross-queue) schedule order
	Nodes         []ir.Node
	AccessRecords []ir.AccessRecord
	Resources     *resdesc.ResourceArena
}

// CrossQueueDependency records that the batch at ConsumerBatch cannot start
// executing until the batch at ProducerBatch (both indices into
// Result.Batches) has completed — the fence planner (spec §4.6) turns each
// of these into a signal slot on the producer and a wait reference on the
// consumer.
type CrossQueueDependency struct {
	ConsumerBatch int
	ProducerBatch int
}

// Result is the synthesized transition/pass/batch record set.
type Result struct {
	Transitions    []Transition
	PassEvents     []PassEvent
	Batches        []CommandBatch
	CrossQueueDeps []CrossQueueDependency
}

type subKey struct {
	resource resdesc.ResourceID
	mip      uint32
	layer    uint32
	aspect   access.AspectMask
	temporal uint32
}

// keyOf identifies the physical subresource slice r accesses, routing the
// record's TemporalLayer selector through Resource.TemporalSlice so two
// accesses naming different wrapped slices of the same declared layer count
// (spec §3's temporal invariant) are never conflated into one current-access
// entry.
func keyOf(resources *resdesc.ResourceArena, r ir.AccessRecord) subKey {
	temporal := r.TemporalLayer
	if res, ok := resources.Get(r.Resource); ok {
		temporal = res.TemporalSlice(r.TemporalLayer)
	}
	return subKey{
		resource: r.Resource,
		mip:      r.SubresourceRange.BaseMip,
		layer:    r.SubresourceRange.BaseArrayLayer,
		aspect:   r.SubresourceRange.AspectMask,
		temporal: temporal,
	}
}

// attachmentFlags is the subset of access.Flags that makes a subresource a
// render-pass attachment (spec §4.5: "Render-pass-scoped accesses
// (RenderTarget, DepthStencil) are grouped").
const attachmentFlags = access.FlagRenderTarget | access.FlagDepthRead | access.FlagDepthWrite |
	access.FlagStencilRead | access.FlagStencilWrite

// Build replays the schedule in global order, maintaining a per-subresource
// current-access map, and emits transitions, render-pass events, and
// command batches.
func Build(in Input) Result {
	globalPos := make(map[resdesc.NodeID]int, len(in.Placements))
	queueOf := make(map[resdesc.NodeID]int, len(in.Placements))
	queuePos := make(map[resdesc.NodeID]int, len(in.Placements))
	for i, p := range in.Placements {
		globalPos[p.NodeID] = i
		queueOf[p.NodeID] = p.QueueIndex
		queuePos[p.NodeID] = p.Position
	}

	perNode := map[resdesc.NodeID][]ir.AccessRecord{}
	byKey := map[subKey][]ir.AccessRecord{}
	for _, r := range in.AccessRecords {
		if _, ok := globalPos[r.Node]; !ok {
			continue // dead node, not part of this schedule
		}
		perNode[r.Node] = append(perNode[r.Node], r)
		byKey[keyOf(in.Resources, r)] = append(byKey[keyOf(in.Resources, r)], r)
	}
	for n := range perNode {
		recs := perNode[n]
		sort.Slice(recs, func(i, j int) bool {
			return lessKey(keyOf(in.Resources, recs[i]), keyOf(in.Resources, recs[j]))
		})
		perNode[n] = recs
	}
	for k := range byKey {
		recs := byKey[k]
		sort.Slice(recs, func(i, j int) bool { return globalPos[recs[i].Node] < globalPos[recs[j].Node] })
		byKey[k] = recs
	}

	b := &builder{
		in:            in,
		globalPos:     globalPos,
		queueOf:       queueOf,
		queuePos:      queuePos,
		byKey:         byKey,
		currentAccess: map[subKey]access.Access{},
		openBatch:     map[int]*CommandBatch{},
		passOpen:      map[int][]resdesc.ResourceID{},
	}

	for i, p := range in.Placements {
		accs := perNode[p.NodeID]
		b.emitTransitions(i, accs)
		boundary := b.advanceBatch(i, p, accs)
		b.advancePass(i, p, accs, boundary)
	}
	b.closeAll(len(in.Placements) - 1)
	crossDeps := b.resolveCrossQueueDeps()

	return Result{Transitions: b.transitions, PassEvents: b.passEvents, Batches: b.batches, CrossQueueDeps: crossDeps}
}

func lessKey(a, b subKey) bool {
	if a.resource.Index() != b.resource.Index() {
		return a.resource.Index() < b.resource.Index()
	}
	if a.mip != b.mip {
		return a.mip < b.mip
	}
	if a.layer != b.layer {
		return a.layer < b.layer
	}
	if a.aspect != b.aspect {
		return a.aspect < b.aspect
	}
	return a.temporal < b.temporal
}

type pendingCrossDep struct {
	consumer resdesc.NodeID
	producer resdesc.NodeID
}

type builder struct {
	in        Input
	globalPos map[resdesc.NodeID]int
	queueOf   map[resdesc.NodeID]int
	queuePos  map[resdesc.NodeID]int
	byKey     map[subKey][]ir.AccessRecord

	currentAccess map[subKey]access.Access

	openBatch map[int]*CommandBatch
	passOpen  map[int][]resdesc.ResourceID

	transitions []Transition
	passEvents  []PassEvent
	batches     []CommandBatch
	crossDeps   []pendingCrossDep
}

// emitTransitions walks this node's accesses against the current-access map
// (spec §4.5 step 1): compatible accesses merge silently, incompatible ones
// emit a Transition, with the data-preserving half elided when the prior
// access declared DiscardAfter, the new one declares DiscardBefore, or the
// new write covers the resource's entire subresource range.
func (b *builder) emitTransitions(position int, accs []ir.AccessRecord) {
	for _, r := range accs {
		k := keyOf(b.in.Resources, r)
		prev, had := b.currentAccess[k]
		if had && prev.IsCompatible(r.Access) {
			b.currentAccess[k] = access.Union(prev, r.Access)
			continue
		}

		discard := false
		if had && prev.Flags&access.FlagDiscardAfter != 0 {
			discard = true
		}
		if r.Access.Flags&access.FlagDiscardBefore != 0 {
			discard = true
		}
		if !r.Access.IsReadOnly() {
			if res, ok := b.in.Resources.Get(r.Resource); ok && r.SubresourceRange.Covers(resdesc.FullRange(res.Desc)) {
				discard = true
			}
		}

		b.transitions = append(b.transitions, Transition{
			Resource:    r.Resource,
			Range:       r.SubresourceRange,
			Before:      prev,
			After:       r.Access,
			AtPosition:  position,
			DiscardData: discard,
		})
		b.currentAccess[k] = r.Access
	}
}

// advanceBatch appends to (or starts) the open CommandBatch for p's queue,
// returning true when this node forced a new batch: either it is the
// queue's first node, or one of its accesses depends on a same-subresource
// predecessor — the nearest prior writer (read-after-write, write-after-
// write) or an intervening reader the write must order after (write-after-
// read) — that ran on a different queue (spec §4.5: "maximal runs of
// consecutive nodes on the same queue with no intervening cross-queue
// dependency"). This mirrors every edge kind schedule/toposort.go's
// buildEdges puts in the post-schedule DAG, not just read-after-write, so
// every cross-queue DAG edge gets a CrossQueueDependency and, downstream, a
// fence pair.
func (b *builder) advanceBatch(position int, p schedule.Placement, accs []ir.AccessRecord) bool {
	seen := map[resdesc.NodeID]bool{}
	var producers []resdesc.NodeID
	addProducer := func(id resdesc.NodeID) {
		if b.queueOf[id] == p.QueueIndex || seen[id] {
			return
		}
		seen[id] = true
		producers = append(producers, id)
	}
	for _, r := range accs {
		k := keyOf(b.in.Resources, r)
		for _, id := range producersFor(b.byKey[k], b.globalPos, position, !r.Access.IsReadOnly()) {
			addProducer(id)
		}
	}
	crossQueue := len(producers) > 0

	open, exists := b.openBatch[p.QueueIndex]
	boundary := !exists || crossQueue
	if boundary {
		if exists {
			b.batches = append(b.batches, *open)
		}
		open = &CommandBatch{QueueIndex: p.QueueIndex, CmdBegin: p.Position, NumCmds: 0, SignalFenceIndex: NoSignalFence}
		b.openBatch[p.QueueIndex] = open
	}
	open.NumCmds++
	for _, producer := range producers {
		b.crossDeps = append(b.crossDeps, pendingCrossDep{consumer: p.NodeID, producer: producer})
	}
	return boundary
}

// producersFor returns the node ids that position directly depends on for
// the subresource identified by recs (sorted ascending by global position):
// the nearest writer strictly before position, plus — when the record at
// position is itself a write — every reader between that writer (exclusive)
// and position (exclusive). This is the same predecessor set
// schedule/toposort.go's buildEdges derives per record (nearest writer reset
// on each new writer, readers accumulating between writers), just replayed
// here against the finished schedule instead of program order.
func producersFor(recs []ir.AccessRecord, globalPos map[resdesc.NodeID]int, position int, isWrite bool) []resdesc.NodeID {
	var out []resdesc.NodeID
	for _, rec := range recs {
		if globalPos[rec.Node] >= position {
			break
		}
		if !rec.Access.IsReadOnly() {
			out = []resdesc.NodeID{rec.Node}
			continue
		}
		if isWrite {
			out = append(out, rec.Node)
		}
	}
	return out
}

// advancePass maintains the per-queue render-pass state machine: a pass
// begins when a node declares attachment accesses with no pass open, ends
// when the attachment set changes or becomes empty, and suspends/resumes
// (rather than ending/beginning) across a batch boundary that does not
// change the attachment set, per spec §4.5's "resume/suspend markers set
// across cmd-buffer splits".
func (b *builder) advancePass(position int, p schedule.Placement, accs []ir.AccessRecord, batchBoundary bool) {
	attachments := attachmentSetFor(accs)
	prev, open := b.passOpen[p.QueueIndex]

	switch {
	case len(attachments) == 0:
		if open {
			b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassEnd, Attachments: prev})
			delete(b.passOpen, p.QueueIndex)
		}
	case !open:
		b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassBegin, Attachments: attachments})
		b.passOpen[p.QueueIndex] = attachments
	case !sameAttachmentSet(prev, attachments):
		b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassEnd, Attachments: prev})
		b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassBegin, Attachments: attachments})
		b.passOpen[p.QueueIndex] = attachments
	case batchBoundary:
		b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassSuspend, Attachments: prev})
		b.passEvents = append(b.passEvents, PassEvent{Position: position, QueueIndex: p.QueueIndex, Action: PassResume, Attachments: prev})
	}
}

func attachmentSetFor(accs []ir.AccessRecord) []resdesc.ResourceID {
	var out []resdesc.ResourceID
	for _, r := range accs {
		if r.Access.Flags&attachmentFlags != 0 {
			out = append(out, r.Resource)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

func sameAttachmentSet(a, b []resdesc.ResourceID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (b *builder) closeAll(lastPosition int) {
	for q, open := range b.openBatch {
		b.batches = append(b.batches, *open)
		delete(b.openBatch, q)
	}
	for q, attachments := range b.passOpen {
		b.passEvents = append(b.passEvents, PassEvent{Position: lastPosition, QueueIndex: q, Action: PassEnd, Attachments: attachments})
		delete(b.passOpen, q)
	}
	sort.Slice(b.batches, func(i, j int) bool {
		if b.batches[i].QueueIndex != b.batches[j].QueueIndex {
			return b.batches[i].QueueIndex < b.batches[j].QueueIndex
		}
		return b.batches[i].CmdBegin < b.batches[j].CmdBegin
	})
}

// resolveCrossQueueDeps turns the (consumer node, producer node) pairs
// gathered during the walk into (consumer batch index, producer batch
// index) pairs against the final, sorted Batches slice, deduplicating pairs
// that collapse onto the same two batches.
func (b *builder) resolveCrossQueueDeps() []CrossQueueDependency {
	seen := map[[2]int]bool{}
	var out []CrossQueueDependency
	for _, dep := range b.crossDeps {
		consumerBatch := b.batchIndexOf(b.queueOf[dep.consumer], b.queuePos[dep.consumer])
		producerBatch := b.batchIndexOf(b.queueOf[dep.producer], b.queuePos[dep.producer])
		if consumerBatch < 0 || producerBatch < 0 || consumerBatch == producerBatch {
			continue
		}
		key := [2]int{consumerBatch, producerBatch}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, CrossQueueDependency{ConsumerBatch: consumerBatch, ProducerBatch: producerBatch})
	}
	return out
}

func (b *builder) batchIndexOf(queueIndex, pos int) int {
	for i, batch := range b.batches {
		if batch.QueueIndex == queueIndex && pos >= batch.CmdBegin && pos < batch.CmdBegin+batch.NumCmds {
			return i
		}
	}
	return -1
}
