// Package memplan assigns each transient, graph-owned resource a heap type
// and an offset within its internal/lifetime alias group (spec §4.7 Memory
// Planner).
//
// Heap type is chosen from FlagPreferGPULocalCPUVisible alone; the
// resource's kind and its access across the scheduled lifetime do not affect
// it, and FlagPreferDedicated only keeps the resource out of shared alias
// groups. Groups come from internal/lifetime's greedy interval-graph packing,
// with each resource's size rounded up to the backend-declared placement
// alignment (mirroring the teacher's hal.Capabilities.AlignmentsMask, which
// reports the same kind of copy-offset/pitch constraint a real allocator
// must round up to). External resources, and persistent ones whose storage
// outlives a single update, are never placed here.
package memplan

import (
	"math/bits"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/ir"
	"github.com/gogpu/rpsgraph/internal/lifetime"
	"github.com/gogpu/rpsgraph/internal/resdesc"
	"github.com/gogpu/rpsgraph/internal/schedule"
)

// HeapType is the coarse memory-type bucket a resource is placed into.
// Defined in hal, not here, so an out-of-module backend can name it when
// implementing hal.Hook.
type HeapType = hal.HeapType

const (
	HeapTypeDefault            = hal.HeapTypeDefault
	HeapTypeGPULocalCPUVisible = hal.HeapTypeGPULocalCPUVisible
)

// dedicatedSizeClassBase offsets the synthetic SizeClass assigned to
// FlagPreferDedicated resources well above any real log2-byte-size bucket,
// so a dedicated resource's HeapClass never coincides with another
// resource's and internal/lifetime.PackAliasGroups always gives it a
// singleton group.
const dedicatedSizeClassBase = 1 << 24

// Input bundles everything the planner needs.
type Input struct {
	Placements    []schedule.Placement
	AccessRecords []ir.AccessRecord
	Resources     *resdesc.ResourceArena
	// Alignment is the backend-declared minimum placement alignment in
	// bytes (the teacher's hal.Alignments.BufferCopyOffset). Zero means no
	// constraint beyond natural packing.
	Alignment uint64
}

// Placement is one resource's final memory assignment. Defined in hal, not
// here, so an out-of-module backend can name it when implementing hal.Hook.
type Placement = hal.Placement

// Result is the complete memory plan for one update.
type Result struct {
	Placements []Placement
	Groups     []lifetime.Group
	// HeapSizes is the total reserved size per heap type, each group's size
	// rounded up to Input.Alignment.
	HeapSizes map[HeapType]uint64
}

// Plan computes heap types and alias-group offsets for every transient,
// graph-owned resource accessed by a live (scheduled) node.
func Plan(in Input) Result {
	alignment := in.Alignment
	if alignment == 0 {
		alignment = 1
	}

	posByNode := make(map[resdesc.NodeID]int, len(in.Placements))
	for _, p := range in.Placements {
		posByNode[p.NodeID] = p.Position
	}

	intervals := resourceIntervals(in.AccessRecords, posByNode)

	var candidates []lifetime.Candidate
	var dedicatedCount uint32
	in.Resources.ForEach(func(rid resdesc.ResourceID, r resdesc.Resource) bool {
		if r.External || r.Desc.IsPersistent() {
			return true
		}
		iv, ok := intervals[rid]
		if !ok {
			return true // never touched by a live node, nothing to place
		}

		size := alignUp(byteSizeOf(r.Desc), alignment)
		heapType := heapTypeFor(r.Desc.Flags)
		sizeClass := uint32(bits.Len64(size))
		if r.Desc.Flags&resdesc.FlagPreferDedicated != 0 {
			dedicatedCount++
			sizeClass = dedicatedSizeClassBase + dedicatedCount
		}

		candidates = append(candidates, lifetime.Candidate{
			Resource: rid,
			Interval: iv,
			Heap:     lifetime.HeapClass{HeapType: uint32(heapType), SizeClass: sizeClass},
			ByteSize: size,
		})
		return true
	})

	groups := lifetime.PackAliasGroups(candidates)

	var placements []Placement
	heapSizes := map[HeapType]uint64{}
	for _, g := range groups {
		ht := HeapType(g.Heap.HeapType)
		heapSizes[ht] += alignUp(g.Size, alignment)
		for _, rid := range g.Resources {
			placements = append(placements, Placement{Resource: rid, HeapType: ht, Offset: g.Offsets[rid]})
		}
	}

	return Result{Placements: placements, Groups: groups, HeapSizes: heapSizes}
}

// resourceIntervals unions the scheduled position of every access into one
// [first,last] interval per resource. internal/lifetime.Table operates at
// subresource granularity, which PackAliasGroups has no use for: a resource
// is aliased or not as a whole, so this builds the resource-level interval
// directly rather than expanding ranges into per-subresource keys.
func resourceIntervals(recs []ir.AccessRecord, posByNode map[resdesc.NodeID]int) map[resdesc.ResourceID]lifetime.Interval {
	intervals := make(map[resdesc.ResourceID]lifetime.Interval, len(recs))
	for _, rec := range recs {
		pos, ok := posByNode[rec.Node]
		if !ok {
			continue // node was eliminated by scheduling's dead-code pass
		}
		if iv, exists := intervals[rec.Resource]; exists {
			if pos < iv.First {
				iv.First = pos
			}
			if pos > iv.Last {
				iv.Last = pos
			}
			intervals[rec.Resource] = iv
		} else {
			intervals[rec.Resource] = lifetime.Interval{First: pos, Last: pos}
		}
	}
	return intervals
}

// byteSizeOf estimates the storage a resource's full allocation needs.
// Buffers carry an exact byte size; images are approximated from their mip
// chain, since the planner only needs a reasonable packing size, not the
// backend's exact row-pitch-aligned layout (the backend hook is free to
// request more at realization time).
func byteSizeOf(d resdesc.ResourceDesc) uint64 {
	if d.Kind == resdesc.KindBuffer {
		return d.ByteSize()
	}
	return estimateImageBytes(d)
}

func estimateImageBytes(d resdesc.ResourceDesc) uint64 {
	elem := uint64(d.Format.ElementSize())
	if elem == 0 {
		elem = 4 // typeless/unknown formats: assume a 4-byte element
	}
	samples := uint64(d.SampleCount)
	if samples == 0 {
		samples = 1
	}
	mipLevels := d.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}
	depthOrLayers := uint64(d.DepthOrArraySize)
	if depthOrLayers == 0 {
		depthOrLayers = 1
	}

	w, h := d.Width, d.Height
	if d.Kind == resdesc.KindImage1D {
		h = 1
	}

	var perLayer uint64
	for i := uint32(0); i < mipLevels; i++ {
		levelW, levelH := w, h
		if levelW == 0 {
			levelW = 1
		}
		if levelH == 0 {
			levelH = 1
		}
		perLayer += uint64(levelW) * uint64(levelH) * elem * samples
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return perLayer * depthOrLayers
}

func heapTypeFor(flags resdesc.Flags) HeapType {
	if flags&resdesc.FlagPreferGPULocalCPUVisible != 0 {
		return HeapTypeGPULocalCPUVisible
	}
	return HeapTypeDefault
}

func alignUp(size, alignment uint64) uint64 {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}
