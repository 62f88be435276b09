package cspace_test

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/setanarut/cspace"
)

func randomPoints(n int, seed int64) []mgl64.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	rot := cspace.NewTransformRotate(0.6, mgl64.Vec3{1, 1, 0})
	points := make([]mgl64.Vec3, n)
	for i := range points {
		// elongated along X before rotation
		p := mgl64.Vec3{rng.Float64()*6 - 3, rng.Float64() - 0.5, rng.Float64()*0.4 - 0.2}
		points[i] = rot.Apply(p)
	}
	return points
}

func TestFitBVContainsPoints(t *testing.T) {
	points := randomPoints(200, 1)
	kinds := []cspace.BVKind{
		cspace.BVAABB, cspace.BVOBB, cspace.BVRSS, cspace.BVOBBRSS,
		cspace.BVKDOP16, cspace.BVKDOP18, cspace.BVKDOP24, cspace.BVKIOS,
	}
	for _, kind := range kinds {
		bv := cspace.FitBV(kind, points)
		if bv.Kind() != kind {
			t.Errorf("%v: fitted %v", kind, bv.Kind())
		}
		bounds := bv.Bounds().Grow(1e-9)
		for _, p := range points {
			if !bv.ContainsPoint(p) {
				t.Errorf("%v does not contain %v", kind, p)
				break
			}
			if !bounds.ContainsPoint(p) {
				t.Errorf("%v bounds do not contain %v", kind, p)
				break
			}
		}
	}
}

func TestFitOBBFollowsPrincipalAxis(t *testing.T) {
	points := randomPoints(500, 2)
	obb := cspace.FitOBB(points)
	major := cspace.NewTransformRotate(0.6, mgl64.Vec3{1, 1, 0}).ApplyVector(mgl64.Vec3{1, 0, 0})
	if d := obb.Axes[0].Dot(major); d < 0.99 && d > -0.99 {
		t.Errorf("major axis %v, want ±%v", obb.Axes[0], major)
	}
	if obb.Extents[0] < obb.Extents[1] || obb.Extents[1] < obb.Extents[2] {
		t.Errorf("extents not ordered: %v", obb.Extents)
	}
	if obb.Axes[0].Cross(obb.Axes[1]).Sub(obb.Axes[2]).Len() > 1e-9 {
		t.Error("axes not right-handed")
	}
	aabb := cspace.NewAABBForPoints(points)
	if obb.Volume() > aabb.Volume() {
		t.Errorf("obb volume %v exceeds aabb volume %v", obb.Volume(), aabb.Volume())
	}
}

func TestFitKIOSElongated(t *testing.T) {
	s := cspace.FitKIOS(randomPoints(100, 3))
	if len(s.Spheres) < 3 {
		t.Errorf("elongated set should get extra spheres, got %d", len(s.Spheres))
	}
	box := cspace.NewAABBForExtents(mgl64.Vec3{}, mgl64.Vec3{1, 0.8, 0.7}).Corners()
	if n := len(cspace.FitKIOS(box[:]).Spheres); n != 1 {
		t.Errorf("compact box got %d spheres", n)
	}
}

func TestParseBVKind(t *testing.T) {
	for _, name := range []string{"AABB", "OBB", "RSS", "OBBRSS", "kDOP16", "kDOP18", "kDOP24", "kIOS"} {
		kind, ok := cspace.ParseBVKind(name)
		if !ok || kind.String() != name {
			t.Errorf("%q parsed as %v, %t", name, kind, ok)
		}
	}
	if _, ok := cspace.ParseBVKind("obb"); ok {
		t.Error("names are case sensitive")
	}
}
