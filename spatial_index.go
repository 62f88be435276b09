package cspace

// SpatialIndexIterator visits one object of an index.
type SpatialIndexIterator func(obj *CollisionObject)

// SpatialIndexer is an interface for broad-phase indexing of collision
// objects by their cached world AABB. It is implemented by AABBTree and
// RTree.
type SpatialIndexer interface {
	// Count returns the number of objects currently stored in the index.
	Count() int

	// Each iterates over all objects in the spatial index, applying
	// the provided iterator function `f` to each object.
	Each(f SpatialIndexIterator)

	// Contains checks if `obj` is stored in the spatial index.
	Contains(obj *CollisionObject) bool

	// Insert adds `obj` to the spatial index using its cached AABB.
	Insert(obj *CollisionObject)

	// Remove deletes `obj` from the spatial index, if it exists.
	Remove(obj *CollisionObject)

	// ReindexObject updates the spatial position of `obj` after its
	// cached AABB changed.
	ReindexObject(obj *CollisionObject)

	// Query calls `f` for every object whose bounds intersect `bb`.
	Query(bb AABB, f SpatialIndexIterator)

	// Clear removes every object.
	Clear()
}

// SpatialIndex is the broad-phase manager handle links register their
// bounding proxies into. Links hold it weakly.
type SpatialIndex struct {
	class SpatialIndexer
	name  string
}

func NewSpatialIndex(klass SpatialIndexer, name string) *SpatialIndex {
	return &SpatialIndex{class: klass, name: name}
}

// IndexFactory creates an empty manager.
type IndexFactory func() *SpatialIndex

// Name returns the label given at construction.
func (index *SpatialIndex) Name() string {
	return index.name
}

// Indexer returns the underlying index implementation.
func (index *SpatialIndex) Indexer() SpatialIndexer {
	return index.class
}

// RegisterObject adds obj to the index. Registering an object twice is a
// programming error.
func (index *SpatialIndex) RegisterObject(obj *CollisionObject) {
	assert(!index.class.Contains(obj), "Internal Error: object is already registered in ", index.name)
	index.class.Insert(obj)
}

// UnregisterObject removes obj and reports whether it was present.
func (index *SpatialIndex) UnregisterObject(obj *CollisionObject) bool {
	if !index.class.Contains(obj) {
		return false
	}
	index.class.Remove(obj)
	return true
}

// Update refreshes the bounds of a registered object.
func (index *SpatialIndex) Update(obj *CollisionObject) {
	index.class.ReindexObject(obj)
}

func (index *SpatialIndex) Clear() {
	index.class.Clear()
}

func (index *SpatialIndex) Count() int {
	return index.class.Count()
}

func (index *SpatialIndex) Contains(obj *CollisionObject) bool {
	return index.class.Contains(obj)
}

func (index *SpatialIndex) Each(f SpatialIndexIterator) {
	index.class.Each(f)
}

// Query returns the objects whose cached bounds intersect bb. Candidates
// reported from fattened index bounds are filtered out.
func (index *SpatialIndex) Query(bb AABB) []*CollisionObject {
	var out []*CollisionObject
	index.class.Query(bb, func(obj *CollisionObject) {
		if obj.AABB().Intersects(bb) {
			out = append(out, obj)
		}
	})
	return out
}
