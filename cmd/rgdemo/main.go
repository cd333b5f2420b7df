// Command rgdemo walks spec scenario S1, "hello triangle": an entry with
// one external backbuffer resource and one graphics node that clears and
// draws into it, recorded against the null backend hook.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/rpsgraph"
	"github.com/gogpu/rpsgraph/hal/nullhook"
	"github.com/gogpu/rpsgraph/internal/access"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// triangleEntry closes over the per-frame swapchain image handle rather
// than taking it as a bound argument: the entry callback itself mints the
// backbuffer's resource id via Builder.GetParamResourceID every update,
// since a resource id from one update's builder never outlives that build.
func triangleEntry(currentImage *string, printer func(string)) rpsgraph.EntryCallback {
	return func(b *rpsgraph.Builder, _ *rpsgraph.ArgSet) error {
		backbufferDesc := rpsgraph.ResourceDesc{
			Kind:   resdesc.KindImage2D,
			Format: access.FormatBGRA8Unorm,
			Width:  1920,
			Height: 1080,
		}
		id := b.GetParamResourceID(backbufferDesc, true, *currentImage, "backbuffer")
		view := resdesc.NewImageView(resdesc.ImageView{Resource: id})

		_, err := b.AddNode(rpsgraph.QueueClassGraphics, "Triangle", func(ctx any) error {
			printer("Triangle: clearing to (0, 0.2, 0.4, 1) and drawing")
			return nil
		}, nil, 0, []ir.ParamAccess{
			{
				View: view,
				Access: access.Access{
					Flags:    access.FlagRenderTarget | access.FlagClear,
					Semantic: access.Semantic{Kind: access.SemanticRenderTarget},
				},
			},
		})
		return err
	}
}

func main() {
	verbose := flag.Bool("v", false, "log scheduler diagnostics")
	flag.Parse()

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	device, err := rpsgraph.DeviceCreate(rpsgraph.DeviceCreateInfo{
		Backend: "null",
		Logger:  logger,
		Printer: func(_ any, format string, args ...any) { fmt.Printf(format+"\n", args...) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "deviceCreate:", err)
		os.Exit(1)
	}

	currentImage := "native-swapchain-image-0"
	graph, err := rpsgraph.RenderGraphCreate(device, rpsgraph.GraphCreateInfo{
		MainEntry: rpsgraph.EntryPoint{
			Signature: rpsgraph.Signature{Name: "helloTriangle"},
			Callback:  triangleEntry(&currentImage, func(s string) { fmt.Println(s) }),
		},
		ScheduleInfo: rpsgraph.ScheduleInfo{
			NumQueues:          1,
			QueueClassPerIndex: []rpsgraph.QueueClass{rpsgraph.QueueClassGraphics},
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "renderGraphCreate:", err)
		os.Exit(1)
	}

	if err := graph.Update(rpsgraph.UpdateInfo{FrameIndex: 0}); err != nil {
		fmt.Fprintln(os.Stderr, "renderGraphUpdate:", err)
		os.Exit(1)
	}

	layout := graph.GetBatchLayout()
	fmt.Printf("batches: %d, fence signals: %d\n", layout.NumCmdBatches, layout.NumFenceSignals)

	cmdBuffer := "native-command-buffer-0"
	for i := range layout.CmdBatches {
		if err := graph.RecordCommands(rpsgraph.RecordInfo{BatchIndex: i, CmdBuffer: cmdBuffer}); err != nil {
			fmt.Fprintln(os.Stderr, "renderGraphRecordCommands:", err)
			os.Exit(1)
		}
	}

	hub := device.Hook().UserContext.(*nullhook.Hub)
	fmt.Printf("hook log: %d realized, %d transitions, %d render passes begun\n",
		len(hub.Realized), len(hub.Transitions), len(hub.PassBegins))
}
