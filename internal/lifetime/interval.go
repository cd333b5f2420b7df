// Package lifetime computes per-subresource live intervals from a scheduled
// node order and packs non-overlapping, non-persistent/external resources
// into shared memory "alias groups" (spec §4.3 Lifetime & Alias Analysis).
package lifetime

import (
	"github.com/gogpu/rpsgraph/internal/resdesc"
)

// Interval is an inclusive [First, Last] range of scheduled positions during
// which a subresource is live.
type Interval struct {
	First int
	Last  int
}

// Overlaps reports whether two intervals share any scheduled position.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.First <= o.Last && o.First <= iv.Last
}

// SubresourceKey identifies one (resource, mip, array layer, aspect) point,
// matching the granularity access records are expanded to in internal/ir.
type SubresourceKey struct {
	Resource resdesc.ResourceID
	Mip      uint32
	Layer    uint32
	Aspect   uint8
}

// AccessEvent is one scheduled touch of a subresource, carrying its final
// scheduled position (not program order) so intervals reflect the schedule
// (spec §4.3: "Alias groups are computed after scheduling so intervals
// reflect the final order").
type AccessEvent struct {
	Key      SubresourceKey
	Position int
}

// Table holds the computed live interval for every subresource touched in
// one build.
type Table struct {
	intervals map[SubresourceKey]Interval
}

// BuildTable computes the first-use/last-use interval for each subresource
// from its scheduled access events.
func BuildTable(events []AccessEvent) *Table {
	t := &Table{intervals: make(map[SubresourceKey]Interval, len(events))}
	for _, e := range events {
		if iv, ok := t.intervals[e.Key]; ok {
			if e.Position < iv.First {
				iv.First = e.Position
			}
			if e.Position > iv.Last {
				iv.Last = e.Position
			}
			t.intervals[e.Key] = iv
		} else {
			t.intervals[e.Key] = Interval{First: e.Position, Last: e.Position}
		}
	}
	return t
}

// Interval returns the live interval for a subresource, or false if it was
// never accessed.
func (t *Table) Interval(k SubresourceKey) (Interval, bool) {
	iv, ok := t.intervals[k]
	return iv, ok
}

// ResourceInterval returns the union interval across every subresource of a
// resource — the span during which any part of the resource is live.
func (t *Table) ResourceInterval(rid resdesc.ResourceID) (Interval, bool) {
	found := false
	var out Interval
	for k, iv := range t.intervals {
		if k.Resource != rid {
			continue
		}
		if !found {
			out = iv
			found = true
			continue
		}
		if iv.First < out.First {
			out.First = iv.First
		}
		if iv.Last > out.Last {
			out.Last = iv.Last
		}
	}
	return out, found
}
