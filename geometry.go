package cspace

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// GeometryKind identifies the primitive a GeometryInfo describes.
type GeometryKind uint8

const (
	GeometryNone GeometryKind = iota
	GeometryBox
	GeometrySphere
	GeometryCylinder
	GeometryTriMesh
	GeometryContainer
)

func (k GeometryKind) String() string {
	switch k {
	case GeometryNone:
		return "none"
	case GeometryBox:
		return "box"
	case GeometrySphere:
		return "sphere"
	case GeometryCylinder:
		return "cylinder"
	case GeometryTriMesh:
		return "trimesh"
	case GeometryContainer:
		return "container"
	default:
		return "unknown"
	}
}

// GeometryInfo is the semantic description of one link geometry as the
// kinematic model stores it.
//
// Params holds the shape parameters:
//   - box: half extents
//   - sphere: radius in X
//   - cylinder: radius in X, height in Y (axis along local Z)
type GeometryInfo struct {
	Kind      GeometryKind
	Transform Transform // geometry pose relative to its link
	Params    mgl64.Vec3
	Mesh      TriMesh // collision mesh for TriMesh and Container kinds
}

// NewBoxGeometry returns a box geometry with the given half extents.
func NewBoxGeometry(local Transform, halfExtents mgl64.Vec3) GeometryInfo {
	return GeometryInfo{Kind: GeometryBox, Transform: local, Params: halfExtents}
}

// NewSphereGeometry returns a sphere geometry.
func NewSphereGeometry(local Transform, radius float64) GeometryInfo {
	return GeometryInfo{Kind: GeometrySphere, Transform: local, Params: mgl64.Vec3{radius, 0, 0}}
}

// NewCylinderGeometry returns a cylinder geometry aligned with local Z.
func NewCylinderGeometry(local Transform, radius, height float64) GeometryInfo {
	return GeometryInfo{Kind: GeometryCylinder, Transform: local, Params: mgl64.Vec3{radius, height, 0}}
}

// NewMeshGeometry returns a triangle mesh geometry.
func NewMeshGeometry(local Transform, mesh TriMesh) GeometryInfo {
	return GeometryInfo{Kind: GeometryTriMesh, Transform: local, Mesh: mesh}
}

// TriMesh is an indexed triangle mesh. Indices holds three entries per
// triangle.
type TriMesh struct {
	Vertices []mgl64.Vec3
	Indices  []int
}

// IsEmpty reports whether the mesh has no triangle.
func (m TriMesh) IsEmpty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Validate reports an error when Indices is not a whole number of triangles
// or references a missing vertex.
func (m TriMesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return errors.Errorf("%d indices do not form whole triangles", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return errors.Errorf("index %d references vertex %d of %d", i, idx, len(m.Vertices))
		}
	}
	return nil
}

// TriangleCount returns the number of triangles.
func (m TriMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertices of triangle i.
func (m TriMesh) Triangle(i int) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		m.Vertices[m.Indices[3*i]],
		m.Vertices[m.Indices[3*i+1]],
		m.Vertices[m.Indices[3*i+2]],
	}
}

// ApplyTransform returns a copy of the mesh with every vertex transformed.
func (m TriMesh) ApplyTransform(t Transform) TriMesh {
	out := TriMesh{
		Vertices: make([]mgl64.Vec3, len(m.Vertices)),
		Indices:  append([]int(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = t.Apply(v)
	}
	return out
}

// Append adds the triangles of other, reindexing them.
func (m *TriMesh) Append(other TriMesh) {
	offset := len(m.Vertices)
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+offset)
	}
}

// AABB returns the bounds of the mesh vertices.
func (m TriMesh) AABB() AABB {
	return NewAABBForPoints(m.Vertices)
}
