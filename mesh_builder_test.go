package cspace_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/cspace"
)

func TestSDFMeshBuilderSphere(t *testing.T) {
	b := cspace.NewSDFMeshBuilder(16)
	mesh, err := b.CollisionMesh(cspace.NewSphereGeometry(cspace.NewTransformIdentity(), 1))
	if err != nil {
		t.Fatal(err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("empty mesh")
	}
	for _, v := range mesh.Vertices {
		if d := math.Abs(v.Len() - 1); d > 0.05 {
			t.Fatalf("vertex %v is %v off the surface", v, d)
		}
	}
}

func TestSDFMeshBuilderBox(t *testing.T) {
	b := cspace.NewSDFMeshBuilder(0)
	if b.Cells != cspace.DefaultMeshCells {
		t.Errorf("cells %d", b.Cells)
	}
	half := mgl64.Vec3{1, 0.5, 0.25}
	mesh, err := b.CollisionMesh(cspace.NewBoxGeometry(cspace.NewTransformIdentity(), half))
	if err != nil {
		t.Fatal(err)
	}
	outer := cspace.NewAABBForExtents(mgl64.Vec3{}, half).Grow(0.05)
	if !outer.Contains(mesh.AABB()) {
		t.Errorf("mesh bounds %v exceed %v", mesh.AABB(), outer)
	}
}

func TestSDFMeshBuilderPassThrough(t *testing.T) {
	tet := cspace.TriMesh{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Indices:  []int{0, 1, 2, 0, 1, 3},
	}
	mesh, err := cspace.NewSDFMeshBuilder(8).CollisionMesh(cspace.NewMeshGeometry(cspace.NewTransformIdentity(), tet))
	if err != nil {
		t.Fatal(err)
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("got %d triangles", mesh.TriangleCount())
	}

	if _, err := cspace.NewSDFMeshBuilder(8).CollisionMesh(cspace.GeometryInfo{Kind: cspace.GeometryNone}); err == nil {
		t.Error("expected an error for a geometry without volume")
	}
}

func TestSDFBoundingProxy(t *testing.T) {
	space := cspace.NewCollisionSpace(cspace.WithMeshBuilder(cspace.NewSDFMeshBuilder(12)))
	body := newCrate("pair", 0.5)
	body.Link(0).SetGeometries(
		cspace.NewBoxGeometry(cspace.NewTransformIdentity(), mgl64.Vec3{0.5, 0.5, 0.5}),
		cspace.NewSphereGeometry(cspace.NewTransformTranslate(mgl64.Vec3{2, 0, 0}), 0.5))
	rec := space.InitBody(body, nil)

	bv := rec.Link(0).BoundingProxy()
	if bv == nil || bv == rec.Link(0).Geometries()[0] {
		t.Fatal("expected a fitted bounding proxy")
	}
	bb := bv.Object.AABB()
	if bb.Min[0] > -0.45 || bb.Max[0] < 2.45 {
		t.Errorf("bounding proxy %v does not span both geometries", bb)
	}
}
