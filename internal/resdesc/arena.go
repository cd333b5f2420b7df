package resdesc

// Arena is a dense, generation-checked collection of T, indexed by ID[M].
//
// Builder-scoped arenas (nodes, subgraphs, resources) are created fresh for
// every update (spec §3 Lifecycles: "prior storage is released before the
// entry callback runs"), so they need no locking — update is single-threaded
// cooperative (spec §5) — and no ID, a resource's included, stays valid
// across updates. Arena still supports an index free-list with epoch bumping
// like the teacher's IdentityManager (Remove frees a slot, Insert reuses it
// with a bumped epoch), though the builder never removes an entry.
type Arena[T any, M Marker] struct {
	items []T
	valid []bool
	epoch []Epoch
	free  []Index
}

// NewArena creates an empty arena with the given initial capacity hint.
func NewArena[T any, M Marker](capacityHint int) *Arena[T, M] {
	if capacityHint <= 0 {
		capacityHint = 16
	}
	return &Arena[T, M]{
		items: make([]T, 0, capacityHint),
		valid: make([]bool, 0, capacityHint),
		epoch: make([]Epoch, 0, capacityHint),
	}
}

// Insert allocates a fresh slot (reusing a freed one if available) and
// stores item, returning its ID.
func (a *Arena[T, M]) Insert(item T) ID[M] {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.items[idx] = item
		a.valid[idx] = true
		a.epoch[idx]++
		return NewID[M](idx, a.epoch[idx])
	}
	idx := Index(len(a.items))
	a.items = append(a.items, item)
	a.valid = append(a.valid, true)
	a.epoch = append(a.epoch, 1)
	return NewID[M](idx, 1)
}

// Get retrieves the item at id, validating the epoch.
func (a *Arena[T, M]) Get(id ID[M]) (T, bool) {
	var zero T
	if int(id.index) >= len(a.items) || !a.valid[id.index] || a.epoch[id.index] != id.epoch {
		return zero, false
	}
	return a.items[id.index], true
}

// GetMut invokes fn with a pointer to the stored item if id is valid.
func (a *Arena[T, M]) GetMut(id ID[M], fn func(*T)) bool {
	if int(id.index) >= len(a.items) || !a.valid[id.index] || a.epoch[id.index] != id.epoch {
		return false
	}
	fn(&a.items[id.index])
	return true
}

// Remove releases id's slot for reuse, returning the removed item.
func (a *Arena[T, M]) Remove(id ID[M]) (T, bool) {
	var zero T
	if int(id.index) >= len(a.items) || !a.valid[id.index] || a.epoch[id.index] != id.epoch {
		return zero, false
	}
	item := a.items[id.index]
	a.items[id.index] = zero
	a.valid[id.index] = false
	a.free = append(a.free, id.index)
	return item, true
}

// Len returns the number of currently valid entries.
func (a *Arena[T, M]) Len() int {
	n := 0
	for _, v := range a.valid {
		if v {
			n++
		}
	}
	return n
}

// ForEach iterates valid entries in index order. Returning false from fn
// stops iteration early.
func (a *Arena[T, M]) ForEach(fn func(ID[M], T) bool) {
	for i := range a.items {
		if a.valid[i] {
			if !fn(NewID[M](Index(i), a.epoch[i]), a.items[i]) {
				return
			}
		}
	}
}

// Reset empties the arena entirely, as happens to builder-scoped arenas at
// the start of every update.
func (a *Arena[T, M]) Reset() {
	a.items = a.items[:0]
	a.valid = a.valid[:0]
	a.epoch = a.epoch[:0]
	a.free = a.free[:0]
}
