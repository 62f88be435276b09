package cspace

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// MeshBuilder produces the collision mesh of a geometry in its own frame.
type MeshBuilder interface {
	CollisionMesh(info GeometryInfo) (TriMesh, error)
}

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 32

// SDFMeshBuilder tessellates primitives with marching cubes over their
// signed distance fields. Mesh geometries pass through unchanged.
type SDFMeshBuilder struct {
	Cells int
}

// NewSDFMeshBuilder returns a builder with the given resolution; cells <= 0
// selects DefaultMeshCells.
func NewSDFMeshBuilder(cells int) *SDFMeshBuilder {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SDFMeshBuilder{Cells: cells}
}

func (b *SDFMeshBuilder) CollisionMesh(info GeometryInfo) (TriMesh, error) {
	var (
		s   sdf.SDF3
		err error
	)
	switch info.Kind {
	case GeometryTriMesh, GeometryContainer:
		return info.Mesh, nil
	case GeometryBox:
		s, err = sdf.Box3D(v3.Vec{X: 2 * info.Params[0], Y: 2 * info.Params[1], Z: 2 * info.Params[2]}, 0)
	case GeometrySphere:
		s, err = sdf.Sphere3D(info.Params[0])
	case GeometryCylinder:
		s, err = sdf.Cylinder3D(info.Params[1], info.Params[0], 0)
	default:
		return TriMesh{}, errors.Errorf("no collision mesh for %s geometry", info.Kind)
	}
	if err != nil {
		return TriMesh{}, errors.Wrapf(err, "tessellate %s", info.Kind)
	}

	cells := b.Cells
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	mesh := TriMesh{
		Vertices: make([]mgl64.Vec3, 0, 3*len(triangles)),
		Indices:  make([]int, 0, 3*len(triangles)),
	}
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{v.X, v.Y, v.Z})
			mesh.Indices = append(mesh.Indices, 3*i+j)
		}
	}
	return mesh, nil
}
