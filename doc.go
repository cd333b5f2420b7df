// Package rpsgraph implements a render-graph runtime: a declarative GPU
// dataflow graph is built once per update by a front-end-supplied callback,
// then compiled into a scheduled, barrier-synchronized, memory-aliased
// command-buffer layout a backend hook replays.
//
// A Device owns one backend hal.Hook. A RenderGraph, created against a
// Device from an EntryPoint, re-runs its callback on every Update and
// produces a fresh BatchLayout; RecordCommands then drives one batch's node
// range onto a caller-supplied command buffer.
package rpsgraph
