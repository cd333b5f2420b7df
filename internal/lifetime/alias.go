package lifetime

import "github.com/gogpu/rpsgraph/internal/resdesc"

// HeapClass is an opaque memory-type/size-class tag two resources must
// share to be considered for the same alias group (spec §4.3(c):
// "their memory-type requirements are compatible").
type HeapClass struct {
	HeapType uint32 // backend-defined heap/memory-type index
	SizeClass uint32 // bucketed allocation size, coarser than exact byte size
}

// Candidate is one resource eligible for aliasing: transient, graph-owned,
// with a computed live interval and heap classification.
type Candidate struct {
	Resource resdesc.ResourceID
	Interval Interval
	Heap     HeapClass
	ByteSize uint64
}

// Group is a set of resources packed into the same memory slot, each
// assigned an offset within the group.
type Group struct {
	Heap      HeapClass
	Resources []resdesc.ResourceID
	Offsets   map[resdesc.ResourceID]uint64
	Size      uint64
}

// slotTrack is one group under construction: its members are, by
// construction, pairwise disjoint in their live intervals (findReusableTrack
// only admits a candidate that overlaps none of the track's existing
// intervals), so every member can share the same base offset within the
// group and the group's size is simply the largest member.
type slotTrack struct {
	group     *Group
	intervals []Interval // parallel to group.Resources
}

// PackAliasGroups greedily colors the interval graph of candidates into the
// smallest number of groups, preferring to extend a group whose heap class
// matches and whose members' intervals are disjoint from the candidate's
// (spec §4.3: "greedily packs resources into the smallest number of
// 'slots'... preferring grouping resources with matching heap type and size
// class to maximize placement reuse").
//
// Candidates are processed in interval-start order, which is the standard
// greedy interval-graph coloring order: the next candidate can only conflict
// with groups holding intervals that started no later than it did.
func PackAliasGroups(candidates []Candidate) []Group {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sortByIntervalStart(ordered)

	var tracks []*slotTrack
	for _, c := range ordered {
		track := findReusableTrack(tracks, c)
		if track == nil {
			track = &slotTrack{
				group: &Group{
					Heap:    c.Heap,
					Offsets: make(map[resdesc.ResourceID]uint64),
				},
			}
			tracks = append(tracks, track)
		}
		placeInTrack(track, c)
	}

	out := make([]Group, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, *t.group)
	}
	return out
}

func findReusableTrack(tracks []*slotTrack, c Candidate) *slotTrack {
	for _, t := range tracks {
		if t.group.Heap != c.Heap {
			continue
		}
		conflict := false
		for _, iv := range t.intervals {
			if iv.Overlaps(c.Interval) {
				conflict = true
				break
			}
		}
		if !conflict {
			return t
		}
	}
	return nil
}

// placeInTrack adds c to t. Every existing member's interval is disjoint
// from c.Interval (enforced by findReusableTrack), and by the same
// invariant applied transitively, all of the track's members are pairwise
// disjoint from each other — so they never need distinct byte ranges and
// all share offset 0 within the group.
func placeInTrack(t *slotTrack, c Candidate) {
	t.group.Resources = append(t.group.Resources, c.Resource)
	t.intervals = append(t.intervals, c.Interval)
	t.group.Offsets[c.Resource] = 0
	if c.ByteSize > t.group.Size {
		t.group.Size = c.ByteSize
	}
}

func sortByIntervalStart(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Interval.First < c[j-1].Interval.First; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
