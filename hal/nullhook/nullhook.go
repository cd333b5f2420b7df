// Package nullhook is a reference hal.Hook implementation adapted from the
// teacher's hal/noop backend: every operation is a no-op that records what
// it was asked to do into an inspectable log, instead of touching any real
// GPU state. It's the baseline the root package's tests and cmd/rgdemo run
// against.
package nullhook

import (
	"fmt"
	"sync"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/memplan"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

func init() {
	hal.Register("null", func() (hal.Hook, error) { return New().Hook(), nil })
}

// handle is the opaque backend handle nullhook hands back from
// RealizeResource; its only job is to be inspectable in tests.
type handle struct {
	Resource resdesc.ResourceID
	HeapType memplan.HeapType
	Offset   uint64
	Name     string
}

// Hub owns the call log and exposes hal.Hook bound to its own methods. Its
// name echoes the teacher's noop.Resource/noop.CommandEncoder split: one
// small struct per concern, all trivially inspectable after a recording
// run.
type Hub struct {
	mu sync.Mutex

	Realized     []resdesc.ResourceID
	Released     []resdesc.ResourceID
	Transitions  []barrier.Transition
	PassBegins   [][]resdesc.ResourceID
	PassEnds     int
	DebugMarkers []string
	ObjectNames  map[any]string
	Clones       int
}

// New returns a fresh Hub with an empty log.
func New() *Hub {
	return &Hub{ObjectNames: make(map[any]string)}
}

// Hook returns a hal.Hook whose vtable entries are this Hub's methods.
func (h *Hub) Hook() hal.Hook {
	return hal.Hook{
		UserContext:         h,
		RealizeResource:     h.realizeResource,
		ReleaseResource:     h.releaseResource,
		RecordTransition:    h.recordTransition,
		BeginRenderPass:     h.beginRenderPass,
		EndRenderPass:       h.endRenderPass,
		SetDebugMarker:      h.setDebugMarker,
		SetObjectName:       h.setObjectName,
		CloneCommandContext: h.cloneCommandContext,
	}
}

func (h *Hub) realizeResource(_ any, id resdesc.ResourceID, _ resdesc.ResourceDesc, placement memplan.Placement) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Realized = append(h.Realized, id)
	return &handle{Resource: id, HeapType: placement.HeapType, Offset: placement.Offset}, nil
}

func (h *Hub) releaseResource(_ any, id resdesc.ResourceID, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Released = append(h.Released, id)
}

func (h *Hub) recordTransition(_ any, _ any, t barrier.Transition, _ any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Transitions = append(h.Transitions, t)
	return nil
}

func (h *Hub) beginRenderPass(_ any, _ any, attachments []resdesc.ResourceID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]resdesc.ResourceID, len(attachments))
	copy(cp, attachments)
	h.PassBegins = append(h.PassBegins, cp)
	return nil
}

func (h *Hub) endRenderPass(_ any, _ any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.PassEnds++
	return nil
}

func (h *Hub) setDebugMarker(_ any, _ any, label string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.DebugMarkers = append(h.DebugMarkers, label)
}

func (h *Hub) setObjectName(_ any, handle any, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ObjectNames[handle] = name
}

// cloneCommandContext returns a distinct placeholder buffer handle per
// call, so tests exercising S6-style fan-out can tell clones apart.
func (h *Hub) cloneCommandContext(_ any, _ any) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Clones++
	return fmt.Sprintf("nullhook-clone-%d", h.Clones), nil
}
