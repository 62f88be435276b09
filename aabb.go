package cspace

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var infinity = math.Inf(1)

// AABB is an axis-aligned 3D bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// NewAABB is convenience constructor for AABB structs.
func NewAABB(min, max mgl64.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Merge or Expand replaces.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl64.Vec3{infinity, infinity, infinity},
		Max: mgl64.Vec3{-infinity, -infinity, -infinity},
	}
}

// NewAABBForExtents constructs an AABB centered on a point with the given
// half sizes.
func NewAABBForExtents(c, half mgl64.Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// NewAABBForSphere constructs an AABB for a sphere with the given position
// and radius.
func NewAABBForSphere(p mgl64.Vec3, r float64) AABB {
	return NewAABBForExtents(p, mgl64.Vec3{r, r, r})
}

// NewAABBForPoints returns the tightest box around points.
func NewAABBForPoints(points []mgl64.Vec3) AABB {
	bb := EmptyAABB()
	for _, p := range points {
		bb = bb.Expand(p)
	}
	return bb
}

func (bb AABB) String() string {
	return fmt.Sprintf("[%.3f %.3f %.3f]-[%.3f %.3f %.3f]",
		bb.Min[0], bb.Min[1], bb.Min[2], bb.Max[0], bb.Max[1], bb.Max[2])
}

// IsEmpty reports whether bb contains no point.
func (bb AABB) IsEmpty() bool {
	return bb.Min[0] > bb.Max[0] || bb.Min[1] > bb.Max[1] || bb.Min[2] > bb.Max[2]
}

// Intersects returns true if a and b intersect.
func (bb AABB) Intersects(b AABB) bool {
	return bb.Min[0] <= b.Max[0] && b.Min[0] <= bb.Max[0] &&
		bb.Min[1] <= b.Max[1] && b.Min[1] <= bb.Max[1] &&
		bb.Min[2] <= b.Max[2] && b.Min[2] <= bb.Max[2]
}

// Contains returns true if other lies completely within bb.
func (bb AABB) Contains(other AABB) bool {
	return bb.Min[0] <= other.Min[0] && bb.Max[0] >= other.Max[0] &&
		bb.Min[1] <= other.Min[1] && bb.Max[1] >= other.Max[1] &&
		bb.Min[2] <= other.Min[2] && bb.Max[2] >= other.Max[2]
}

// ContainsPoint returns true if bb contains p.
func (bb AABB) ContainsPoint(p mgl64.Vec3) bool {
	return bb.Min[0] <= p[0] && bb.Max[0] >= p[0] &&
		bb.Min[1] <= p[1] && bb.Max[1] >= p[1] &&
		bb.Min[2] <= p[2] && bb.Max[2] >= p[2]
}

// Merge returns a bounding box that holds both bounding boxes.
func (bb AABB) Merge(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(bb.Min[0], b.Min[0]), math.Min(bb.Min[1], b.Min[1]), math.Min(bb.Min[2], b.Min[2])},
		Max: mgl64.Vec3{math.Max(bb.Max[0], b.Max[0]), math.Max(bb.Max[1], b.Max[1]), math.Max(bb.Max[2], b.Max[2])},
	}
}

// Expand returns a bounding box that holds both bb and p.
func (bb AABB) Expand(p mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(bb.Min[0], p[0]), math.Min(bb.Min[1], p[1]), math.Min(bb.Min[2], p[2])},
		Max: mgl64.Vec3{math.Max(bb.Max[0], p[0]), math.Max(bb.Max[1], p[1]), math.Max(bb.Max[2], p[2])},
	}
}

// Grow returns bb enlarged by margin on every side.
func (bb AABB) Grow(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: bb.Min.Sub(m), Max: bb.Max.Add(m)}
}

// Center returns the center of a bounding box.
func (bb AABB) Center() mgl64.Vec3 {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// Extents returns the half sizes of the box.
func (bb AABB) Extents() mgl64.Vec3 {
	return bb.Max.Sub(bb.Min).Mul(0.5)
}

// Size returns the full side lengths of the box.
func (bb AABB) Size() mgl64.Vec3 {
	return bb.Max.Sub(bb.Min)
}

// Volume returns the volume of the bounding box.
func (bb AABB) Volume() float64 {
	if bb.IsEmpty() {
		return 0
	}
	s := bb.Size()
	return s[0] * s[1] * s[2]
}

// MergedVolume merges a and b and returns the volume of the merged bounding box.
func (bb AABB) MergedVolume(b AABB) float64 {
	return bb.Merge(b).Volume()
}

// SurfaceArea returns the surface area; used as the insertion cost heuristic.
func (bb AABB) SurfaceArea() float64 {
	if bb.IsEmpty() {
		return 0
	}
	s := bb.Size()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// MergedSurfaceArea returns the surface area of the merged box.
func (bb AABB) MergedSurfaceArea(b AABB) float64 {
	return bb.Merge(b).SurfaceArea()
}

// Proximity is the Manhattan distance between the doubled centers.
func (bb AABB) Proximity(b AABB) float64 {
	return math.Abs(bb.Min[0]+bb.Max[0]-b.Min[0]-b.Max[0]) +
		math.Abs(bb.Min[1]+bb.Max[1]-b.Min[1]-b.Max[1]) +
		math.Abs(bb.Min[2]+bb.Max[2]-b.Min[2]-b.Max[2])
}

// Corners returns the eight corners of the box.
func (bb AABB) Corners() [8]mgl64.Vec3 {
	var c [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = bb.Max[axis]
			} else {
				c[i][axis] = bb.Min[axis]
			}
		}
	}
	return c
}
