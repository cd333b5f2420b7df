package resdesc

// The Marker type parameter of Arena must be named by the caller, but the
// concrete marker types declared in id.go are unexported so that only this
// package can mint new ids of each kind. These aliases and constructors give
// other packages an opaque, already-instantiated Arena for each id
// namespace without ever naming the marker type itself.

// ResourceArena is a dense arena of Resource, keyed by ResourceID.
type ResourceArena = Arena[Resource, resourceMarker]

// NewResourceArena creates an empty ResourceArena.
func NewResourceArena(capacityHint int) *ResourceArena {
	return NewArena[Resource, resourceMarker](capacityHint)
}

// ViewArena is a dense arena of View, keyed by ViewID.
type ViewArena = Arena[View, viewMarker]

// NewViewArena creates an empty ViewArena.
func NewViewArena(capacityHint int) *ViewArena {
	return NewArena[View, viewMarker](capacityHint)
}

// NodeArena is a dense arena keyed by NodeID, holding caller-defined node
// records (the ir package's Node type, without resdesc needing to import ir).
type NodeArena[T any] = Arena[T, nodeMarker]

// NewNodeArena creates an empty NodeArena.
func NewNodeArena[T any](capacityHint int) *NodeArena[T] {
	return NewArena[T, nodeMarker](capacityHint)
}

// SubgraphArena is a dense arena keyed by SubgraphID, holding caller-defined
// subgraph records.
type SubgraphArena[T any] = Arena[T, subgraphMarker]

// NewSubgraphArena creates an empty SubgraphArena.
func NewSubgraphArena[T any](capacityHint int) *SubgraphArena[T] {
	return NewArena[T, subgraphMarker](capacityHint)
}
