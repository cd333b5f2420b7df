package rpsgraph

import (
	"testing"

	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// TestRenderGraph_BatchLayoutCrossQueueFence builds a copy-then-graphics
// chain across two queues so the copy batch must signal a fence the
// graphics batch waits on, exercising GetBatchLayout's dense fence-index
// space and buildBatchInput's global-to-local position remap across more
// than one CommandBatch.
func TestRenderGraph_BatchLayoutCrossQueueFence(t *testing.T) {
	device := newTestDevice(t)
	var order []string

	g, err := RenderGraphCreate(device, GraphCreateInfo{
		MainEntry: EntryPoint{
			Signature: Signature{Name: "copy-then-draw"},
			Callback: func(b *Builder, _ *ArgSet) error {
				rt := b.GetParamResourceID(resdesc.ResourceDesc{
					Kind:   resdesc.KindImage2D,
					Format: access.FormatRGBA8Unorm,
					Width:  64,
					Height: 64,
				}, false, nil, "staged")
				view := resdesc.NewImageView(resdesc.ImageView{Resource: rt})

				if _, err := b.AddNode(QueueClassCopy, "upload", func(ctx any) error {
					order = append(order, "upload")
					return nil
				}, nil, 0, []ir.ParamAccess{
					{View: view, Access: access.Access{Flags: access.FlagCopyDst}},
				}); err != nil {
					return err
				}

				_, err := b.AddNode(QueueClassGraphics, "draw", func(ctx any) error {
					order = append(order, "draw")
					return nil
				}, nil, 0, []ir.ParamAccess{
					{View: view, Access: access.Access{Flags: access.FlagShaderRead}},
				})
				return err
			},
		},
		ScheduleInfo: ScheduleInfo{
			NumQueues: 2,
			// Index 0 only satisfies copy-class work; index 1 satisfies
			// everything (a graphics queue). This forces the copy node onto
			// queue 0 and the graphics node onto queue 1, so the dependency
			// between them crosses queues.
			QueueClassPerIndex: []QueueClass{QueueClassCopy, QueueClassGraphics},
		},
	})
	if err != nil {
		t.Fatalf("RenderGraphCreate: %v", err)
	}

	if err := g.Update(UpdateInfo{FrameIndex: 0}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	layout := g.GetBatchLayout()
	if layout.NumCmdBatches < 2 {
		t.Fatalf("NumCmdBatches = %d, want at least 2 (copy and graphics on separate queues)", layout.NumCmdBatches)
	}

	sawSignal := false
	for _, cb := range layout.CmdBatches {
		if cb.SignalFenceIndex != NoSignalFence {
			sawSignal = true
			if cb.SignalFenceIndex >= layout.NumFenceSignals {
				t.Errorf("SignalFenceIndex %d out of dense range [0,%d)", cb.SignalFenceIndex, layout.NumFenceSignals)
			}
		}
	}
	if !sawSignal {
		t.Fatal("no batch signals a fence; expected the copy batch to signal one for the graphics batch's wait")
	}

	for i, cb := range layout.CmdBatches {
		if err := g.RecordCommands(RecordInfo{BatchIndex: i, CmdBuffer: "cmdbuf"}); err != nil {
			t.Fatalf("RecordCommands(%d): %v", i, err)
		}
		_ = cb
	}

	if len(order) != 2 || order[0] != "upload" || order[1] != "draw" {
		t.Fatalf("recorded order = %v, want [upload draw]", order)
	}
}

func TestRenderGraph_BatchLayoutNoSignalSentinel(t *testing.T) {
	device := newTestDevice(t)
	g, err := RenderGraphCreate(device, GraphCreateInfo{
		MainEntry: EntryPoint{
			Signature: Signature{Name: "single-queue"},
			Callback: func(b *Builder, _ *ArgSet) error {
				_, err := b.AddNode(QueueClassGraphics, "noop", func(ctx any) error { return nil }, nil, 0, nil)
				return err
			},
		},
	})
	if err != nil {
		t.Fatalf("RenderGraphCreate: %v", err)
	}
	if err := g.Update(UpdateInfo{}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	layout := g.GetBatchLayout()
	for _, cb := range layout.CmdBatches {
		if cb.SignalFenceIndex != NoSignalFence {
			t.Fatalf("single-queue batch SignalFenceIndex = %d, want NoSignalFence (%d)", cb.SignalFenceIndex, NoSignalFence)
		}
		if cb.NumWaitFences != 0 {
			t.Fatalf("single-queue batch NumWaitFences = %d, want 0", cb.NumWaitFences)
		}
	}
}
