// Package orchestrator turns a finished schedule, barrier plan, and set of
// realized resource handles into actual native command-buffer content (spec
// §4.8 Record Orchestrator): recordCommands walks a batch's node range,
// emitting transitions and render-pass events at the positions the barrier
// stage computed, then dispatching each node's callback.
package orchestrator

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// RecordFlags are caller hints for a single recordCommands call.
type RecordFlags uint32

const (
	// RecordFlagNone requests default behavior.
	RecordFlagNone RecordFlags = 0
)

// Input bundles everything the orchestrator needs to record a schedule's
// node range into native commands.
type Input struct {
	// Nodes is the node list this Orchestrator replays, in scheduled
	// (placement) order; index i is the node recorded at position i, the
	// same numbering Barrier's transition and pass-event positions use.
	Nodes []ir.Node

	Resources *resdesc.ResourceArena

	// Handles maps each realized transient/persistent resource to the
	// opaque backend handle hal.Hook.RealizeResource returned for it, and
	// each external resource to its caller-supplied handle.
	Handles map[resdesc.ResourceID]any

	Barrier barrier.Result
	Hook    hal.Hook

	FrameIndex uint64
}

// Orchestrator replays one Input's barrier plan onto caller-supplied
// command buffers across one or more recordCommands calls.
type Orchestrator struct {
	in    Input
	arena contextArena

	transitionsByPos map[int][]barrier.Transition
	passEventsByPos  map[int][]barrier.PassEvent
}

// New precomputes per-position transition and pass-event buckets so that
// RecordRange can emit them in a single forward pass over a node range.
func New(in Input) *Orchestrator {
	o := &Orchestrator{
		in:               in,
		transitionsByPos: make(map[int][]barrier.Transition),
		passEventsByPos:  make(map[int][]barrier.PassEvent),
	}
	for _, t := range in.Barrier.Transitions {
		o.transitionsByPos[t.AtPosition] = append(o.transitionsByPos[t.AtPosition], t)
	}
	for _, e := range in.Barrier.PassEvents {
		o.passEventsByPos[e.Position] = append(o.passEventsByPos[e.Position], e)
	}
	return o
}

// attachmentsFor returns the render-target set active at position after
// applying any pass event scheduled there, given the set active just
// before it.
func attachmentsFor(events []barrier.PassEvent, prev []resdesc.ResourceID) []resdesc.ResourceID {
	active := prev
	for _, e := range events {
		switch e.Action {
		case barrier.PassBegin, barrier.PassResume:
			active = e.Attachments
		case barrier.PassEnd, barrier.PassSuspend:
			active = nil
		}
	}
	return active
}

func (o *Orchestrator) applyPassEvent(cmdBuffer any, e barrier.PassEvent) error {
	switch e.Action {
	case barrier.PassBegin, barrier.PassResume:
		return o.in.Hook.BeginRenderPass(o.in.Hook.UserContext, cmdBuffer, e.Attachments)
	case barrier.PassEnd, barrier.PassSuspend:
		return o.in.Hook.EndRenderPass(o.in.Hook.UserContext, cmdBuffer)
	}
	return nil
}

// RecordRange implements spec §4.8's recordCommands: for each scheduled
// position in [cmdBeginIndex, cmdBeginIndex+numCmds), it (1) emits any
// transitions due at that position, (2) opens/resumes or ends/suspends
// render passes, (3) builds a CmdCallbackContext, and (4) dispatches the
// node's callback, which may override the active command buffer for the
// remainder of the range.
//
// RecordRange is reentrant across disjoint [cmdBeginIndex, cmdBeginIndex+
// numCmds) ranges and safe to call concurrently for such ranges (spec §5);
// within one call it is strictly sequential.
func (o *Orchestrator) RecordRange(cmdBuffer any, userRecordContext any, cmdBeginIndex, numCmds int, flags RecordFlags) error {
	var errs []error
	active := cmdBuffer
	var attachments []resdesc.ResourceID

	for pos := cmdBeginIndex; pos < cmdBeginIndex+numCmds; pos++ {
		if pos < 0 || pos >= len(o.in.Nodes) {
			errs = append(errs, fmt.Errorf("orchestrator: position %d out of range [0,%d)", pos, len(o.in.Nodes)))
			continue
		}

		for _, t := range o.transitionsByPos[pos] {
			handle := o.in.Handles[t.Resource]
			if err := o.in.Hook.RecordTransition(o.in.Hook.UserContext, active, t, handle); err != nil {
				errs = append(errs, fmt.Errorf("orchestrator: transition on %v at position %d: %w", t.Resource, pos, err))
			}
		}

		events := o.passEventsByPos[pos]
		attachments = attachmentsFor(events, attachments)
		for _, e := range events {
			if err := o.applyPassEvent(active, e); err != nil {
				errs = append(errs, fmt.Errorf("orchestrator: pass event at position %d: %w", pos, err))
			}
		}

		node := o.in.Nodes[pos]
		if node.Callback == nil {
			continue
		}
		ctx := &CmdCallbackContext{
			CmdBuffer:         active,
			UserRecordContext: userRecordContext,
			UserCmdContext:    node.UserCtx,
			NodeID:            node.ID,
			CmdIndex:          pos,
			FrameIndex:        o.in.FrameIndex,
			node:              node,
			resources:         o.in.Resources,
			hook:              o.in.Hook,
			handles:           o.in.Handles,
			arena:             &o.arena,
			attachments:       attachments,
		}
		if err := node.Callback(ctx); err != nil {
			errs = append(errs, fmt.Errorf("orchestrator: node %v callback: %w", node.ID, err))
		}
		if ctx.overrideBuffer != nil {
			active = ctx.overrideBuffer
		}
	}

	return errors.Join(errs...)
}

// RecordRangeConcurrent dispatches the node callbacks in
// [cmdBeginIndex, cmdBeginIndex+numCmds) across up to workers goroutines,
// each recording onto its own cloned secondary command buffer (spec §8
// scenario S6). Transition and pass-event emission remain RecordRange's
// sole responsibility — this path models only the parallel-record /
// serial-submit pattern real backends use for secondary command buffers.
//
// The returned node-ID slice is always in scheduled order: the dispatch loop
// fills slot i with the node at position cmdBeginIndex+i before starting its
// goroutine, so the result does not depend on goroutine completion order.
// The cloned secondary command buffers are not collected or returned.
func (o *Orchestrator) RecordRangeConcurrent(cmdBuffer any, userRecordContext any, cmdBeginIndex, numCmds, workers int, flags RecordFlags) ([]resdesc.NodeID, error) {
	if workers <= 0 {
		workers = 1
	}
	order := make([]resdesc.NodeID, numCmds)

	base := &CmdCallbackContext{
		CmdBuffer:         cmdBuffer,
		UserRecordContext: userRecordContext,
		FrameIndex:        o.in.FrameIndex,
		resources:         o.in.Resources,
		hook:              o.in.Hook,
		handles:           o.in.Handles,
		arena:             &o.arena,
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i := 0; i < numCmds; i++ {
		pos := cmdBeginIndex + i
		slot := i
		if pos < 0 || pos >= len(o.in.Nodes) {
			return nil, fmt.Errorf("orchestrator: position %d out of range [0,%d)", pos, len(o.in.Nodes))
		}
		node := o.in.Nodes[pos]
		order[slot] = node.ID

		g.Go(func() error {
			if node.Callback == nil {
				return nil
			}
			clone, err := base.Clone()
			if err != nil {
				return fmt.Errorf("orchestrator: clone context for node %v: %w", node.ID, err)
			}
			clone.UserCmdContext = node.UserCtx
			clone.NodeID = node.ID
			clone.CmdIndex = pos
			clone.node = node
			if err := node.Callback(clone); err != nil {
				return fmt.Errorf("orchestrator: node %v callback: %w", node.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return order, err
	}
	return order, nil
}
