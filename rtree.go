package cspace

import (
	"github.com/dhconnelly/rtreego"
)

const (
	rtreeMinChildren = 2
	rtreeMaxChildren = 8
)

// rtreeEntry snapshots the bounds an object was inserted with, since the
// R-tree locates entries by their stored bounds on deletion.
type rtreeEntry struct {
	obj    *CollisionObject
	bounds rtreego.Rect
}

func (e *rtreeEntry) Bounds() rtreego.Rect {
	return e.bounds
}

// RTree is an R-tree index over object bounds.
type RTree struct {
	tree    *rtreego.Rtree
	entries map[*CollisionObject]*rtreeEntry
}

// NewRTree returns a manager backed by an RTree.
func NewRTree(name string) *SpatialIndex {
	return NewSpatialIndex(NewRTreeIndexer(), name)
}

func NewRTreeIndexer() *RTree {
	return &RTree{
		tree:    rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren),
		entries: make(map[*CollisionObject]*rtreeEntry),
	}
}

func rectFromAABB(bb AABB) rtreego.Rect {
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{bb.Min[0], bb.Min[1], bb.Min[2]},
		rtreego.Point{bb.Max[0], bb.Max[1], bb.Max[2]},
	)
	if err != nil {
		panic("Internal Error: " + err.Error())
	}
	return r
}

func (rt *RTree) Count() int {
	return len(rt.entries)
}

func (rt *RTree) Each(f SpatialIndexIterator) {
	for obj := range rt.entries {
		f(obj)
	}
}

func (rt *RTree) Contains(obj *CollisionObject) bool {
	_, ok := rt.entries[obj]
	return ok
}

func (rt *RTree) Insert(obj *CollisionObject) {
	e := &rtreeEntry{obj: obj, bounds: rectFromAABB(obj.AABB())}
	rt.entries[obj] = e
	rt.tree.Insert(e)
}

func (rt *RTree) Remove(obj *CollisionObject) {
	e, ok := rt.entries[obj]
	if !ok {
		return
	}
	delete(rt.entries, obj)
	rt.tree.Delete(e)
}

func (rt *RTree) ReindexObject(obj *CollisionObject) {
	e, ok := rt.entries[obj]
	if !ok {
		return
	}
	bounds := rectFromAABB(obj.AABB())
	if bounds.Equal(e.bounds) {
		return
	}
	rt.tree.Delete(e)
	e.bounds = bounds
	rt.tree.Insert(e)
}

func (rt *RTree) Query(bb AABB, f SpatialIndexIterator) {
	if len(rt.entries) == 0 {
		return
	}
	for _, s := range rt.tree.SearchIntersect(rectFromAABB(bb)) {
		f(s.(*rtreeEntry).obj)
	}
}

func (rt *RTree) Clear() {
	rt.tree = rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren)
	clear(rt.entries)
}
