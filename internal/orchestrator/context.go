package orchestrator

import (
	"sync"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/rpserr"
)

// ViewportInfo is the size a node callback should render into, derived from
// its primary render target attachment.
type ViewportInfo struct {
	Width  uint32
	Height uint32
}

// CmdCallbackContext is what a node callback receives (spec §4.8 step 3):
// typed accessors over the node's bound parameters, its render-target set,
// and a handle to the backend command buffer it should record onto.
type CmdCallbackContext struct {
	CmdBuffer         any
	UserRecordContext any
	UserCmdContext    any
	NodeID            resdesc.NodeID
	CmdIndex          int
	FrameIndex        uint64

	node        ir.Node
	resources   *resdesc.ResourceArena
	hook        hal.Hook
	handles     map[resdesc.ResourceID]any
	arena       *contextArena
	attachments []resdesc.ResourceID

	// overrideBuffer is set by SetOverrideCmdBuffer when the callback
	// submitted sub-work of its own (spec §4.8 step 4: "If the callback
	// 'overrides' the active command buffer... subsequent transitions are
	// recorded onto the override").
	overrideBuffer any
}

func (c *CmdCallbackContext) paramView(i int) (resdesc.View, error) {
	if i < 0 || i >= len(c.node.ParamViews) {
		return resdesc.View{}, rpserr.Newf(rpserr.IndexOutOfBounds, "orchestrator.CmdCallbackContext",
			"param index %d out of range [0,%d)", i, len(c.node.ParamViews))
	}
	return c.node.ParamViews[i], nil
}

// GetArgView returns the raw view bound to parameter i.
func (c *CmdCallbackContext) GetArgView(i int) (resdesc.View, error) {
	return c.paramView(i)
}

// GetArg returns parameter i's value in its most generic form: nil for a
// null-bound parameter, the bound resdesc.View otherwise.
func (c *CmdCallbackContext) GetArg(i int) (any, error) {
	v, err := c.paramView(i)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	return v, nil
}

// GetArgResourceDesc returns the ResourceDesc backing parameter i's view.
func (c *CmdCallbackContext) GetArgResourceDesc(i int) (resdesc.ResourceDesc, error) {
	v, err := c.paramView(i)
	if err != nil {
		return resdesc.ResourceDesc{}, err
	}
	if v.IsNull() {
		return resdesc.ResourceDesc{}, rpserr.Newf(rpserr.NotFound, "orchestrator.GetArgResourceDesc", "param %d is unbound", i)
	}
	res, ok := c.resources.Get(v.ResourceID())
	if !ok {
		return resdesc.ResourceDesc{}, rpserr.Newf(rpserr.NotFound, "orchestrator.GetArgResourceDesc", "param %d: resource not found", i)
	}
	return res.Desc, nil
}

// GetArgResource returns the realized backend handle for parameter i's
// bound resource, as returned by hal.Hook.RealizeResource.
func (c *CmdCallbackContext) GetArgResource(i int) (any, error) {
	v, err := c.paramView(i)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	return c.handles[v.ResourceID()], nil
}

// GetRenderTargetsInfo returns the attachment set of the render pass active
// at this node's scheduled position, or nil outside a render pass.
func (c *CmdCallbackContext) GetRenderTargetsInfo() []resdesc.ResourceID {
	return c.attachments
}

// GetViewportInfo derives a viewport from the first active render target.
func (c *CmdCallbackContext) GetViewportInfo() (ViewportInfo, error) {
	if len(c.attachments) == 0 {
		return ViewportInfo{}, rpserr.New(rpserr.NotFound, "orchestrator.GetViewportInfo", "no active render target")
	}
	res, ok := c.resources.Get(c.attachments[0])
	if !ok {
		return ViewportInfo{}, rpserr.New(rpserr.NotFound, "orchestrator.GetViewportInfo", "attachment resource not found")
	}
	return ViewportInfo{Width: res.Desc.Width, Height: res.Desc.Height}, nil
}

// CmdBufferHandle returns the command buffer the callback should record
// onto: the override set by SetOverrideCmdBuffer if any, else CmdBuffer.
func (c *CmdCallbackContext) CmdBufferHandle() any {
	if c.overrideBuffer != nil {
		return c.overrideBuffer
	}
	return c.CmdBuffer
}

// SetOverrideCmdBuffer records that the callback submitted sub-work of its
// own; the orchestrator records subsequent transitions onto buf instead of
// the original CmdBuffer (spec §4.8 step 4).
func (c *CmdCallbackContext) SetOverrideCmdBuffer(buf any) {
	c.overrideBuffer = buf
}

// Clone allocates a fresh context bound to a secondary command buffer for
// parallel recording (spec §4.8 step 3). Allocation is serialized through
// the shared contextArena's mutex; the clone itself is independent and safe
// to use from its owning goroutine without further locking. The clone is
// only valid until the batch that produced it ends.
func (c *CmdCallbackContext) Clone() (*CmdCallbackContext, error) {
	if !c.hook.SupportsCloning() {
		return nil, rpserr.New(rpserr.NotImplemented, "orchestrator.Clone", "backend hook does not support CloneCommandContext")
	}
	secondary, err := c.arena.cloneBuffer(c.hook, c.CmdBufferHandle())
	if err != nil {
		return nil, rpserr.Wrap(rpserr.Unspecified, "orchestrator.Clone", err)
	}
	clone := *c
	clone.CmdBuffer = secondary
	clone.overrideBuffer = nil
	return &clone, nil
}

// contextArena serializes the one operation spec §5 calls out explicitly:
// "the orchestrator serializes only the context-arena allocation path (used
// by callback fan-out cloning)." Everything else about a cloned context is
// free of shared mutable state.
type contextArena struct {
	mu sync.Mutex
}

func (a *contextArena) cloneBuffer(hook hal.Hook, cmdBuffer any) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hook.CloneCommandContext(hook.UserContext, cmdBuffer)
}
