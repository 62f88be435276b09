package cspace

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid 3D transformation: a unit quaternion rotation followed
// by a translation.
//
//	p' = Rot * p + Trans
//
// Transforms compose right to left, so a.Mult(b) applies b first and then a.
// A link's world pose composed with a shape's local pose is therefore
// linkWorld.Mult(shapeLocal).
type Transform struct {
	Rot   mgl64.Quat
	Trans mgl64.Vec3
}

// NewTransformIdentity creates and returns an identity transformation.
func NewTransformIdentity() Transform {
	return Transform{Rot: mgl64.QuatIdent()}
}

// NewTransform returns a transform with the given rotation and translation.
func NewTransform(rot mgl64.Quat, trans mgl64.Vec3) Transform {
	return Transform{Rot: rot, Trans: trans}
}

// NewTransformTranslate returns a pure translation.
func NewTransformTranslate(translate mgl64.Vec3) Transform {
	return Transform{Rot: mgl64.QuatIdent(), Trans: translate}
}

// NewTransformRotate returns a rotation of angle radians around axis.
func NewTransformRotate(angle float64, axis mgl64.Vec3) Transform {
	return Transform{Rot: mgl64.QuatRotate(angle, axis.Normalize())}
}

// NewTransformFromAxes returns the transform whose rotation maps the
// canonical basis onto the given orthonormal axes and whose translation is
// center. The third axis is recomputed from the first two so the result is
// always a proper rotation.
func NewTransformFromAxes(axes [3]mgl64.Vec3, center mgl64.Vec3) Transform {
	x := axes[0].Normalize()
	y := axes[1].Sub(x.Mul(axes[1].Dot(x))).Normalize()
	z := x.Cross(y)
	rot := mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
	return Transform{Rot: rot, Trans: center}
}

func (t Transform) String() string {
	return fmt.Sprintf("rot(%.4f %.4f %.4f %.4f) trans(%.4f %.4f %.4f)",
		t.Rot.W, t.Rot.V[0], t.Rot.V[1], t.Rot.V[2], t.Trans[0], t.Trans[1], t.Trans[2])
}

// Mult returns the composition t * t2.
func (t Transform) Mult(t2 Transform) Transform {
	return Transform{
		Rot:   t.Rot.Mul(t2.Rot).Normalize(),
		Trans: t.Rot.Rotate(t2.Trans).Add(t.Trans),
	}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	inv := t.Rot.Conjugate()
	return Transform{
		Rot:   inv,
		Trans: inv.Rotate(t.Trans).Mul(-1),
	}
}

// Apply transforms the point p.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rot.Rotate(p).Add(t.Trans)
}

// ApplyVector rotates v without translating it.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rot.Rotate(v)
}

// AABB returns the axis-aligned box enclosing bb after transformation.
func (t Transform) AABB(bb AABB) AABB {
	if bb.IsEmpty() {
		return bb
	}
	center := t.Apply(bb.Center())
	half := bb.Extents()
	m := t.Rot.Mat4().Mat3()

	// Arvo's method: the new half extents are |R| * half.
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext[i] += math.Abs(m.At(i, j)) * half[j]
		}
	}
	return NewAABBForExtents(center, ext)
}

// ApproxEqual reports whether both transforms describe the same pose within
// the absolute tolerance threshold. q and -q are the same orientation.
func (t Transform) ApproxEqual(other Transform, threshold float64) bool {
	return t.Trans.Sub(other.Trans).Len() <= threshold &&
		math.Abs(t.Rot.Dot(other.Rot)) >= 1-threshold
}
