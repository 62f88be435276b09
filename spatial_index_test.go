package cspace_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/cspace"
)

func indexBackends() map[string]func() *cspace.SpatialIndex {
	return map[string]func() *cspace.SpatialIndex{
		"aabbtree": treeFactory,
		"rtree":    rtreeFactory,
	}
}

func newBoxObject(center mgl64.Vec3, half float64) *cspace.CollisionObject {
	obj := cspace.NewCollisionObject(&cspace.Box{Side: mgl64.Vec3{2 * half, 2 * half, 2 * half}})
	obj.SetTranslation(center)
	obj.ComputeAABB()
	return obj
}

// bruteQuery returns the objects of objs whose bounds intersect bb.
func bruteQuery(objs []*cspace.CollisionObject, bb cspace.AABB) []*cspace.CollisionObject {
	var out []*cspace.CollisionObject
	for _, obj := range objs {
		if obj.AABB().Intersects(bb) {
			out = append(out, obj)
		}
	}
	return out
}

func sameObjects(a, b []*cspace.CollisionObject) bool {
	if len(a) != len(b) {
		return false
	}
	for _, obj := range a {
		if !slices.Contains(b, obj) {
			return false
		}
	}
	return true
}

func TestSpatialIndexQuery(t *testing.T) {
	for name, factory := range indexBackends() {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			index := factory()
			var objs []*cspace.CollisionObject
			for range 100 {
				c := mgl64.Vec3{rng.Float64() * 20, rng.Float64() * 20, rng.Float64() * 20}
				obj := newBoxObject(c, 0.25+rng.Float64())
				objs = append(objs, obj)
				index.RegisterObject(obj)
			}
			if index.Count() != len(objs) {
				t.Fatalf("count %d", index.Count())
			}

			for i := range 20 {
				c := mgl64.Vec3{float64(i), float64(i), float64(i)}
				bb := cspace.NewAABBForExtents(c, mgl64.Vec3{2, 2, 2})
				if got, want := index.Query(bb), bruteQuery(objs, bb); !sameObjects(got, want) {
					t.Errorf("query %d: got %d objects, want %d", i, len(got), len(want))
				}
			}

			// move half the objects far away
			for _, obj := range objs[:50] {
				obj.SetTranslation(obj.Transform().Trans.Add(mgl64.Vec3{100, 0, 0}))
				obj.ComputeAABB()
				index.Update(obj)
			}
			for i := range 20 {
				c := mgl64.Vec3{float64(i), float64(i), float64(i)}
				bb := cspace.NewAABBForExtents(c, mgl64.Vec3{2, 2, 2})
				if got, want := index.Query(bb), bruteQuery(objs, bb); !sameObjects(got, want) {
					t.Errorf("query %d after update: got %d objects, want %d", i, len(got), len(want))
				}
			}

			for _, obj := range objs[:10] {
				if !index.UnregisterObject(obj) {
					t.Error("unregister failed")
				}
				if index.UnregisterObject(obj) {
					t.Error("second unregister should report absence")
				}
			}
			if index.Count() != 90 || index.Contains(objs[0]) || !index.Contains(objs[10]) {
				t.Error("membership after removal")
			}
			all := cspace.NewAABB(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{200, 200, 200})
			if got := index.Query(all); !sameObjects(got, objs[10:]) {
				t.Errorf("full query returned %d objects", len(got))
			}

			var visited int
			index.Each(func(*cspace.CollisionObject) { visited++ })
			if visited != 90 {
				t.Errorf("visited %d", visited)
			}

			index.Clear()
			if index.Count() != 0 || len(index.Query(all)) != 0 {
				t.Error("clear")
			}
		})
	}
}

func TestSpatialIndexDoubleRegisterPanics(t *testing.T) {
	for name, factory := range indexBackends() {
		t.Run(name, func(t *testing.T) {
			index := factory()
			obj := newBoxObject(mgl64.Vec3{}, 1)
			index.RegisterObject(obj)
			expectPanic(t, "Internal Error", func() {
				index.RegisterObject(obj)
			})
		})
	}
}

func TestAABBTreeHeight(t *testing.T) {
	tree := cspace.NewAABBTreeIndexer()
	index := cspace.NewSpatialIndex(tree, "grid")
	for i := range 64 {
		index.RegisterObject(newBoxObject(mgl64.Vec3{float64(i % 8), float64(i / 8), 0}, 0.4))
	}
	if h := tree.Height(); h < 7 || h > 64 {
		t.Errorf("tree height %d for 64 leaves", h)
	}
	if index.Name() != "grid" || index.Indexer() != cspace.SpatialIndexer(tree) {
		t.Errorf("unexpected index %q", index.Name())
	}
}
