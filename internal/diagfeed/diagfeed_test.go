package diagfeed

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/rpsgraph/internal/barrier"
	"github.com/gogpu/rpsgraph/internal/fenceplan"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

func TestLogger_DefaultsToSilent(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() = nil, want a non-nil default logger")
	}
	if Logger().Enabled(nil, slog.LevelError) {
		t.Error("default logger reports Enabled for LevelError, want false (no-op handler)")
	}
}

func TestSetLogger_NilRestoresSilent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	if !Logger().Enabled(nil, slog.LevelInfo) {
		t.Fatal("installed logger should report Enabled for LevelInfo")
	}
	SetLogger(nil)
	if Logger().Enabled(nil, slog.LevelInfo) {
		t.Error("SetLogger(nil) should restore the silent default")
	}
}

func TestDumper_RespectsFlags(t *testing.T) {
	var lines []string
	printer := func(_ any, format string, args ...any) {
		lines = append(lines, format)
		_ = args
	}

	d := Dumper{Flags: DumpPostBuild, Printer: printer}
	d.DumpPreSchedule([]ir.Node{{Name: "should-not-print"}})
	if len(lines) != 0 {
		t.Fatalf("DumpPreSchedule emitted output with DumpPreSchedule flag unset: %v", lines)
	}

	d.DumpPostBuild([]ir.Node{{Name: "n"}}, nil)
	if len(lines) == 0 {
		t.Fatal("DumpPostBuild emitted nothing with DumpPostBuild flag set")
	}
}

func TestDumper_NilPrinterIsSilent(t *testing.T) {
	d := Dumper{Flags: DumpPostBuild | DumpPreSchedule | DumpPostSchedule}
	// None of these should panic with a nil Printer.
	d.DumpPostBuild([]ir.Node{{Name: "n"}}, nil)
	d.DumpPreSchedule([]ir.Node{{Name: "n"}})
	d.DumpPostSchedule(schedule.Result{})
}

func TestBuildVisualizerFrame_RoundTripsThroughJSON(t *testing.T) {
	arena := resdesc.NewResourceArena(1)
	rid := arena.Insert(resdesc.Resource{})

	nodes := []ir.Node{{Name: "draw"}}
	sched := schedule.Result{Placements: []schedule.Placement{{Position: 0, QueueIndex: 0}}}
	br := barrier.Result{Transitions: []barrier.Transition{{Resource: rid, AtPosition: 0}}}
	fp := fenceplan.Result{Slots: []fenceplan.Slot{{SignalingQueue: 0, Value: 1}}}

	frame := BuildVisualizerFrame(nodes, sched, br, fp)
	if len(frame.Nodes) != 1 || len(frame.Placements) != 1 || len(frame.Transitions) != 1 || len(frame.FenceSlots) != 1 {
		t.Fatalf("frame = %+v, want one entry in each populated slice", frame)
	}

	var buf bytes.Buffer
	if err := EncodeVisualizerFrame(&buf, frame); err != nil {
		t.Fatalf("EncodeVisualizerFrame() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"nodes"`) {
		t.Errorf("encoded JSON missing \"nodes\" key: %s", buf.String())
	}
}
