package cspace

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshFactory builds the collision geometry of a triangle mesh.
type MeshFactory func(mesh TriMesh) CollisionGeometry

// NewMeshFactory returns a MeshFactory building BVH models whose node
// volumes are of the given kind.
func NewMeshFactory(kind BVKind) MeshFactory {
	return func(mesh TriMesh) CollisionGeometry {
		return NewBVHModel(kind, mesh)
	}
}

// NewBoxShape returns a box proxy from its half extents.
//
// Parameters:
//   - local: The pose of the box relative to its link.
//   - half: The half extents of the box.
func NewBoxShape(local Transform, half mgl64.Vec3) *ShapeProxy {
	return &ShapeProxy{
		Local:  local,
		Object: NewCollisionObject(&Box{Side: half.Mul(2)}),
	}
}

// NewSphereShape returns a sphere proxy.
func NewSphereShape(local Transform, radius float64) *ShapeProxy {
	return &ShapeProxy{
		Local:  local,
		Object: NewCollisionObject(&Sphere{Radius: radius}),
	}
}

// NewCylinderShape returns a cylinder proxy with its axis along local Z.
func NewCylinderShape(local Transform, radius, height float64) *ShapeProxy {
	return &ShapeProxy{
		Local:  local,
		Object: NewCollisionObject(&Cylinder{Radius: radius, Height: height}),
	}
}

// NewMeshShape returns a mesh proxy built with meshFactory.
func NewMeshShape(local Transform, mesh TriMesh, meshFactory MeshFactory) *ShapeProxy {
	return &ShapeProxy{
		Local:  local,
		Object: NewCollisionObject(meshFactory(mesh)),
	}
}

// newShapeFromInfo builds the proxy for one link geometry. It returns nil
// for kinds without a collision representation and for degenerate
// parameters.
func newShapeFromInfo(info GeometryInfo, meshFactory MeshFactory, logger *slog.Logger) *ShapeProxy {
	p := info.Params
	switch info.Kind {
	case GeometryNone:
		return nil
	case GeometryBox:
		if p[0] <= 0 || p[1] <= 0 || p[2] <= 0 {
			logger.Warn("skipping degenerate box", slog.Any("extents", p))
			return nil
		}
		return NewBoxShape(info.Transform, p)
	case GeometrySphere:
		if p[0] <= 0 {
			logger.Warn("skipping degenerate sphere", slog.Float64("radius", p[0]))
			return nil
		}
		return NewSphereShape(info.Transform, p[0])
	case GeometryCylinder:
		if p[0] <= 0 || p[1] <= 0 {
			logger.Warn("skipping degenerate cylinder", slog.Float64("radius", p[0]), slog.Float64("height", p[1]))
			return nil
		}
		return NewCylinderShape(info.Transform, p[0], p[1])
	case GeometryTriMesh, GeometryContainer:
		if info.Mesh.IsEmpty() {
			return nil
		}
		if err := info.Mesh.Validate(); err != nil {
			logger.Warn("skipping malformed mesh", slog.Any("error", err))
			return nil
		}
		return NewMeshShape(info.Transform, info.Mesh, meshFactory)
	default:
		logger.Warn("unsupported geometry kind", slog.String("kind", info.Kind.String()))
		return nil
	}
}

// newBoundingShape fits an oriented box over the link-local collision
// meshes of geoms and returns it as a box proxy whose local pose is the box
// frame.
func newBoundingShape(geoms []GeometryInfo, builder MeshBuilder, logger *slog.Logger) *ShapeProxy {
	var points []mgl64.Vec3
	for _, info := range geoms {
		mesh, err := builder.CollisionMesh(info)
		if err != nil {
			logger.Warn("no collision mesh for bounding volume", slog.String("kind", info.Kind.String()), slog.Any("error", err))
			continue
		}
		points = append(points, mesh.ApplyTransform(info.Transform).Vertices...)
	}
	if len(points) == 0 {
		return nil
	}
	obb := FitOBB(points)
	return NewBoxShape(obb.Transform(), obb.Extents)
}
