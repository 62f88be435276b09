package cspace

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// CollisionGeometry is an immutable collision-engine shape expressed in its
// own frame.
type CollisionGeometry interface {
	Kind() GeometryKind
	// LocalAABB bounds the geometry in its own frame.
	LocalAABB() AABB
}

// Box is a box centered on its origin with full side lengths Side.
type Box struct {
	Side mgl64.Vec3
}

func (b *Box) Kind() GeometryKind { return GeometryBox }

func (b *Box) LocalAABB() AABB {
	return NewAABBForExtents(mgl64.Vec3{}, b.Side.Mul(0.5))
}

// Sphere is a sphere centered on its origin.
type Sphere struct {
	Radius float64
}

func (s *Sphere) Kind() GeometryKind { return GeometrySphere }

func (s *Sphere) LocalAABB() AABB {
	return NewAABBForSphere(mgl64.Vec3{}, s.Radius)
}

// Cylinder is a cylinder centered on its origin with its axis along Z.
type Cylinder struct {
	Radius, Height float64
}

func (c *Cylinder) Kind() GeometryKind { return GeometryCylinder }

func (c *Cylinder) LocalAABB() AABB {
	return NewAABBForExtents(mgl64.Vec3{}, mgl64.Vec3{c.Radius, c.Radius, c.Height / 2})
}

// CollisionObject is the native handle registered in broad-phase indexes: a
// geometry placed in the world with a cached world AABB.
type CollisionObject struct {
	// UserData is the LinkRecord owning the object, or nil once released.
	UserData any

	geom      CollisionGeometry
	transform Transform
	aabb      AABB
}

// NewCollisionObject wraps geom at the identity pose.
func NewCollisionObject(geom CollisionGeometry) *CollisionObject {
	obj := &CollisionObject{
		geom:      geom,
		transform: NewTransformIdentity(),
	}
	obj.ComputeAABB()
	return obj
}

func (obj *CollisionObject) String() string {
	return fmt.Sprintf("%s %v", obj.geom.Kind(), obj.aabb)
}

// Geometry returns the wrapped geometry.
func (obj *CollisionObject) Geometry() CollisionGeometry {
	return obj.geom
}

// Transform returns the world pose last pushed into the object.
func (obj *CollisionObject) Transform() Transform {
	return obj.transform
}

func (obj *CollisionObject) SetTranslation(t mgl64.Vec3) {
	obj.transform.Trans = t
}

func (obj *CollisionObject) SetQuatRotation(q mgl64.Quat) {
	obj.transform.Rot = q
}

// SetTransform sets the world pose. The cached AABB is stale until
// ComputeAABB is called.
func (obj *CollisionObject) SetTransform(t Transform) {
	obj.transform = t
}

// ComputeAABB refreshes the cached world AABB from the current pose.
func (obj *CollisionObject) ComputeAABB() AABB {
	obj.aabb = obj.transform.AABB(obj.geom.LocalAABB())
	return obj.aabb
}

// AABB returns the cached world AABB.
func (obj *CollisionObject) AABB() AABB {
	return obj.aabb
}

// ShapeProxy pairs a geometry's pose relative to its link with the native
// handle built for it.
type ShapeProxy struct {
	Local  Transform
	Object *CollisionObject
}

// Kind returns the geometry kind of the proxied shape.
func (p *ShapeProxy) Kind() GeometryKind {
	return p.Object.geom.Kind()
}

// place pushes linkPose * Local into the native handle and refreshes its
// bounds.
func (p *ShapeProxy) place(linkPose Transform) {
	pose := linkPose.Mult(p.Local)
	p.Object.SetTranslation(pose.Trans)
	p.Object.SetQuatRotation(pose.Rot)
	p.Object.ComputeAABB()
}
